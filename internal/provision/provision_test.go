package provision

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"go.uber.org/goleak"

	"lxcforge/internal/container"
	"lxcforge/internal/container/containertest"
)

func containerSpec() container.ImageSpec {
	return container.ImageSpec{Distro: "debian", Release: "jessie", Arch: "amd64"}
}

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

func step(desc string, order *[]string, err error) Step {
	return Step{
		Desc: desc,
		Run: func(ctx context.Context) error {
			*order = append(*order, desc)
			return err
		},
	}
}

func TestEngineRunsStepsInOrder(t *testing.T) {
	fake := containertest.New("test_postgresql_jessie", "10.0.3.42")
	engine := NewEngine(nil, false)

	var order []string
	steps := []Step{
		step("first", &order, nil),
		step("second", &order, nil),
		step("third", &order, nil),
	}

	res, err := engine.Run(context.Background(), fake, steps)
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}
	if res.Steps != 3 {
		t.Errorf("expected 3 steps, got %d", res.Steps)
	}
	if fmt.Sprint(order) != "[first second third]" {
		t.Errorf("steps ran out of order: %v", order)
	}
}

func TestEngineStopsAtFirstFailure(t *testing.T) {
	fake := containertest.New("test_django_jessie", "10.0.3.43")
	engine := NewEngine(nil, false)

	boom := errors.New("boom")
	var order []string
	steps := []Step{
		step("ok", &order, nil),
		step("fails", &order, boom),
		step("never runs", &order, nil),
	}

	_, err := engine.Run(context.Background(), fake, steps)
	if !errors.Is(err, boom) {
		t.Fatalf("expected wrapped step error, got %v", err)
	}
	if len(order) != 2 {
		t.Errorf("expected 2 executed steps, got %v", order)
	}
}

func TestEngineTearsDownOnFailure(t *testing.T) {
	fake := containertest.New("test_pydev_jessie", "10.0.3.44")
	engine := NewEngine(nil, false)

	steps := []Step{
		{Desc: "Creating filesystem", Run: func(ctx context.Context) error { return fake.Create(containerSpec()) }},
		{Desc: "Starting container", Run: func(ctx context.Context) error { return fake.Start() }},
		{Desc: "Exploding", Run: func(ctx context.Context) error { return errors.New("boom") }},
	}

	if _, err := engine.Run(context.Background(), fake, steps); err == nil {
		t.Fatal("expected failure")
	}
	if !fake.Stopped {
		t.Error("container was not stopped during teardown")
	}
	if !fake.Destroyed {
		t.Error("container was not destroyed during teardown")
	}
}

func TestEngineKeepsContainerWhenAsked(t *testing.T) {
	fake := containertest.New("test_postgresql_jessie", "10.0.3.45")
	engine := NewEngine(nil, true)

	steps := []Step{
		{Desc: "Creating filesystem", Run: func(ctx context.Context) error { return fake.Create(containerSpec()) }},
		{Desc: "Exploding", Run: func(ctx context.Context) error { return errors.New("boom") }},
	}

	if _, err := engine.Run(context.Background(), fake, steps); err == nil {
		t.Fatal("expected failure")
	}
	if fake.Destroyed {
		t.Error("container was destroyed despite keep-on-failure")
	}
}

func TestEngineSkipsTeardownForUndefinedContainer(t *testing.T) {
	fake := containertest.New("test_postgresql_jessie", "10.0.3.46")
	engine := NewEngine(nil, false)

	steps := []Step{
		{Desc: "Creating filesystem", Run: func(ctx context.Context) error { return errors.New("create failed") }},
	}

	if _, err := engine.Run(context.Background(), fake, steps); err == nil {
		t.Fatal("expected failure")
	}
	if fake.Destroyed {
		t.Error("undefined container should not be destroyed")
	}
}

func TestEngineHonorsContextCancellation(t *testing.T) {
	fake := containertest.New("test_django_jessie", "10.0.3.47")
	engine := NewEngine(nil, false)

	ctx, cancel := context.WithCancel(context.Background())
	var order []string
	steps := []Step{
		{Desc: "cancels", Run: func(c context.Context) error {
			order = append(order, "cancels")
			cancel()
			return nil
		}},
		step("never runs", &order, nil),
	}

	_, err := engine.Run(ctx, fake, steps)
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
	if len(order) != 1 {
		t.Errorf("expected only the first step to run, got %v", order)
	}
}
