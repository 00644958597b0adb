package compilation

// Module is a compile module: a plugin with hooks around the compiler step.
// Each hook runs once per pipeline run, in module list order.
type Module interface {
	Name() string
	BeforeCompile(ctx *BeforeCompileContext) error
	AfterCompile(ctx *AfterCompileContext) error
}

// Base gives modules that only need one hook a no-op for the other.
type Base struct{}

func (Base) BeforeCompile(*BeforeCompileContext) error { return nil }
func (Base) AfterCompile(*AfterCompileContext) error   { return nil }
