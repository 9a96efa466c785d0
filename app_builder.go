package kitbash

import (
	"reflect"
)

// AppBuilder assembles an App from modules; Install runs at Build time so
// modules can depend on resources registered by earlier ones.
type AppBuilder struct {
	app     *App
	modules []Module
}

func NewAppBuilder() *AppBuilder {
	return &AppBuilder{app: &App{
		scene:     NewScene(),
		resources: make(map[reflect.Type]any),
	}}
}

func (b *AppBuilder) UseModule(modules ...Module) *AppBuilder {
	b.modules = append(b.modules, modules...)
	return b
}

func (b *AppBuilder) Build() *App {
	app := b.app
	commands := &Commands{app: app}

	for _, module := range b.modules {
		app.modules = append(app.modules, module)
		module.Install(app, commands)
	}

	return app
}
