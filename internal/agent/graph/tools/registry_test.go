package tools

import (
	"context"
	"errors"
	"testing"

	"github.com/cloudwego/eino/components/tool"
	"github.com/cloudwego/eino/schema"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	errx "github.com/health-assistant-core/server/internal/core/error"
)

type stubTool struct {
	name string
	run  func(args string) (string, error)
}

func (s *stubTool) Info(context.Context) (*schema.ToolInfo, error) {
	return &schema.ToolInfo{Name: s.name, Desc: "stub " + s.name}, nil
}

func (s *stubTool) InvokableRun(_ context.Context, args string, _ ...tool.Option) (string, error) {
	return s.run(args)
}

func TestRegistryRegisterAndLookup(t *testing.T) {
	ctx := context.Background()
	r := NewRegistry()

	require.NoError(t, r.Register(ctx, &stubTool{name: "a", run: func(string) (string, error) { return "A", nil }}))
	require.NoError(t, r.Register(ctx, &stubTool{name: "b", run: func(string) (string, error) { return "B", nil }}))
	assert.Error(t, r.Register(ctx, &stubTool{name: "a"}))
	assert.Error(t, r.Register(ctx, &stubTool{name: "  "}))
	assert.Equal(t, 2, r.Len())

	got, err := r.Lookup("b")
	require.NoError(t, err)
	out, err := got.InvokableRun(ctx, "{}")
	require.NoError(t, err)
	assert.Equal(t, "B", out)

	_, err = r.Lookup("missing")
	assert.ErrorIs(t, err, errx.ErrToolNotFound)

	assert.Equal(t, []Descriptor{{Name: "a", Description: "stub a"}, {Name: "b", Description: "stub b"}}, r.Catalogue())
	infos := r.Infos()
	require.Len(t, infos, 2)
	assert.Equal(t, "a", infos[0].Name)
	assert.Len(t, r.List(), 2)
}

func TestGuardTurnsFailuresIntoObservations(t *testing.T) {
	ctx := context.Background()
	r := NewRegistry()
	require.NoError(t, r.Register(ctx, &stubTool{name: "fails", run: func(string) (string, error) { return "", errors.New("backend down") }}))
	require.NoError(t, r.Register(ctx, &stubTool{name: "panics", run: func(string) (string, error) { panic("boom") }}))

	failing, _ := r.Lookup("fails")
	out, err := failing.InvokableRun(ctx, "{}")
	require.NoError(t, err)
	assert.Equal(t, "Error executing tool fails: backend down", out)

	panicking, _ := r.Lookup("panics")
	out, err = panicking.InvokableRun(ctx, "{}")
	require.NoError(t, err)
	assert.Contains(t, out, "Error executing tool panics: panic: boom")
}

func TestDefaultRegistryInvocation(t *testing.T) {
	ctx := context.Background()
	r, err := NewDefaultRegistry(ctx, Options{})
	require.NoError(t, err)

	var names []string
	for _, d := range r.Catalogue() {
		names = append(names, d.Name)
	}
	assert.Equal(t, []string{BMICalculatorName, BMRCalculatorName, CalorieEstimatorName, LogSummaryName}, names)

	bmi, err := r.Lookup(BMICalculatorName)
	require.NoError(t, err)
	out, err := bmi.InvokableRun(ctx, `{"weight_kg":70,"height_m":1.75}`)
	require.NoError(t, err)
	assert.Contains(t, out, "Your BMI is 22.9 (Normal weight).")

	out, err = bmi.InvokableRun(ctx, `{"weight_kg":70,"height_m":0}`)
	require.NoError(t, err)
	assert.Contains(t, out, "Error executing tool bmi_calculator:")

	bmr, _ := r.Lookup(BMRCalculatorName)
	out, err = bmr.InvokableRun(ctx, `{"age_years":30,"gender":"female","weight_kg":70,"height_cm":175}`)
	require.NoError(t, err)
	assert.Contains(t, out, "Your estimated BMR is 1483 calories/day.")

	cal, _ := r.Lookup(CalorieEstimatorName)
	out, err = cal.InvokableRun(ctx, `{"bmr":1600,"activity_level":"light","goal":"lose_weight"}`)
	require.NoError(t, err)
	assert.Contains(t, out, "approximately 1700 calories/day")

	out, err = bmi.InvokableRun(ctx, `not json`)
	require.NoError(t, err)
	assert.Contains(t, out, "Error executing tool bmi_calculator:")
}

func TestDefaultRegistryWithSearch(t *testing.T) {
	r, err := NewDefaultRegistry(context.Background(), Options{Search: searchConfig("http://localhost", "key")})
	require.NoError(t, err)
	_, err = r.Lookup(WebSearchName)
	assert.NoError(t, err)
}
