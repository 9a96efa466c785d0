package kitbash

// Commands is the operator-facing facade over the App: scene access, shared
// resources and user reporting. Operators never hold an App directly.
type Commands struct {
	app *App
}

func (cmd *Commands) Scene() *Scene {
	return cmd.app.scene
}

func (cmd *Commands) Logger() Logger {
	return cmd.app.Logger()
}

// Report queues a user-visible message; the host displays drained reports as
// popups.
func (cmd *Commands) Report(title, message string) {
	cmd.app.reports = append(cmd.app.reports, Report{Title: title, Message: message})
	cmd.app.Logger().Warnf("%s: %s", title, message)
}

// Meshes returns the mesh server resource, or nil if MeshServerModule is not
// installed.
func (cmd *Commands) Meshes() *MeshServer {
	return GetResource[MeshServer](cmd)
}

// Cursor returns the 3D cursor resource, or nil if CursorModule is not
// installed.
func (cmd *Commands) Cursor() *Cursor {
	return GetResource[Cursor](cmd)
}

// Prefs returns the preferences resource, falling back to defaults when
// PrefsModule is not installed.
func (cmd *Commands) Prefs() *Prefs {
	if p := GetResource[Prefs](cmd); p != nil {
		return p
	}
	return DefaultPrefs()
}
