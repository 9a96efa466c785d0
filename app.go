package kitbash

import (
	"fmt"
	"reflect"
)

// Status is an operator completion status.
type Status int

const (
	StatusFinished Status = iota
	StatusCancelled
)

func (s Status) String() string {
	if s == StatusFinished {
		return "FINISHED"
	}
	return "CANCELLED"
}

// Module installs resources into an App.
type Module interface {
	Install(app *App, cmd *Commands)
}

// Operator is a named, parameterized command dispatched by the host: callers
// set its fields, the host gates applicability via Poll and runs Execute
// synchronously to completion. No operator suspends mid-execution.
type Operator interface {
	IdName() string
	Poll(cmd *Commands) bool
	Execute(cmd *Commands) Status
}

// Report is a user-visible message produced by an operator.
type Report struct {
	Title   string
	Message string
}

// App owns the scene graph and the shared resource registry. Operator
// dispatch is serialized: the host never runs two operators concurrently.
type App struct {
	scene       *Scene
	resources   map[reflect.Type]any
	modules     []Module
	reports     []Report
	dispatching bool
}

func NewApp() *App {
	return &App{
		scene:     NewScene(),
		resources: make(map[reflect.Type]any),
	}
}

func (app *App) Commands() *Commands {
	return &Commands{app: app}
}

func (app *App) Scene() *Scene { return app.scene }

// UseModules installs modules immediately, in order.
func (app *App) UseModules(modules ...Module) *App {
	cmd := app.Commands()
	for _, module := range modules {
		app.modules = append(app.modules, module)
		module.Install(app, cmd)
	}
	return app
}

func (app *App) addResources(resources ...any) *App {
	for _, resource := range resources {
		resourceType := reflect.TypeOf(resource)
		if _, ok := app.resources[resourceType.Elem()]; ok {
			panic(fmt.Sprintf("%s is already in resources", resourceType))
		}

		app.resources[resourceType.Elem()] = resource
	}
	return app
}

// AddResources registers pointer resources, panicking on duplicates.
func (app *App) AddResources(resources ...any) *App {
	return app.addResources(resources...)
}

// RunOperator dispatches op synchronously and returns its status. A false
// Poll is a precondition failure: the operator is skipped and nothing is
// mutated. Nested dispatch is a programming error.
func (app *App) RunOperator(op Operator) Status {
	if app.dispatching {
		panic(fmt.Sprintf("nested dispatch of operator %s", op.IdName()))
	}
	app.dispatching = true
	defer func() { app.dispatching = false }()

	cmd := app.Commands()
	if !op.Poll(cmd) {
		app.Logger().Debugf("operator %s: poll failed, skipped", op.IdName())
		return StatusCancelled
	}

	status := op.Execute(cmd)
	app.Logger().Debugf("operator %s: %s", op.IdName(), status)
	return status
}

// DrainReports hands all pending user-visible messages to the host.
func (app *App) DrainReports() []Report {
	out := app.reports
	app.reports = nil
	return out
}

// GetResource fetches the registered resource of type T, or nil if no module
// installed one.
func GetResource[T any](cmd *Commands) *T {
	t := reflect.TypeOf((*T)(nil)).Elem()
	if r, ok := cmd.app.resources[t]; ok {
		return r.(*T)
	}
	return nil
}
