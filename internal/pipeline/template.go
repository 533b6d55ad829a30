package pipeline

// FuncTemplate is a ModuleTemplate backed by a factory function.
type FuncTemplate struct {
	// Name is the display name of the modules created by the template.
	Name string

	// Disabled stops the template from producing modules.
	Disabled bool

	// Factory creates a new module instance.
	Factory func() FileModule
}

// CanProduceFileModule implements ModuleTemplate.
func (t *FuncTemplate) CanProduceFileModule() bool {
	return !t.Disabled && t.Factory != nil
}

// CreateFileModule implements ModuleTemplate.
func (t *FuncTemplate) CreateFileModule() FileModule {
	return t.Factory()
}

// DisplayName implements ModuleTemplate.
func (t *FuncTemplate) DisplayName() string {
	return t.Name
}

var _ ModuleTemplate = (*FuncTemplate)(nil)
