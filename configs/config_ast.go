package configs

const (
	// HookDirective marks a function declaration as an interposition hook.
	HookDirective = `//preload:hook`
	// IgnoreDirective skips a whole file.
	IgnoreDirective = `//preload:ignore`
	ExportDirective = `//export`

	HooklibImportPath = `github.com/ListenOcean/goPreload/hooklib`
	HooklibImportName = `_preload_hooklib`
	HooklibNewFunc    = `New`
	HooklibTargetFunc = `Target`

	HooklibWithResolverFunc = `WithResolver`
	HooklibLibraryFunc      = `Library`

	TargetVarIdentFormat = `_preload_target_%s`
	HookFuncIdentFormat  = `_preload_hook_%s`
	ParamIdentPrefix     = `_param`

	OverlayFileName = `overlay.json`

	Version = "0.1.0"
)
