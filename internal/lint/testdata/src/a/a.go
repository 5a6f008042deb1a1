package a

//overrider:default // want `file has overrider directives but no //go:build overrider constraint`
func Greet() string { return "a" }

//overrider:override_default(priority = x) // want `ATR1002: override_default: priority must be a non-negative integer, found x`
func Second() {}

//overrider:override_default(weight = 2) // want `ATR1003: override_default: unknown argument "weight"`
func Third() {}

//overrider:override_dflt // want `ATR1006: unknown directive //overrider:override_dflt`
func Fourth() {}

//overrider:default // want `GEN2001: //overrider:default cannot be applied to a type declaration`
type T struct{}

//overrider:default
//overrider:override_default // want `GEN2004: override_default conflicts with default on the same declaration`
func Fifth() {}

//overrider:override_flag(flag = fast) // want `GEN2005: override_flag cannot be applied to constants`
const Mode = 1

func body() int {
	//overrider:default // want `directive is not attached to a top-level declaration`
	const x = 1
	return x
}

// Plain comments mentioning overrider:default are left alone.
func Plain() {}
