package ride

// ShouldWarn reports whether the overtime prompt must be raised. The
// comparison is strictly greater-than: riding exactly the committed time does
// not warn. A committed duration of zero disables the check entirely, and a
// prompt that was already raised (or resolved by acknowledgement) is never
// raised again for the same session.
func ShouldWarn(elapsedSeconds, committedSeconds int, acknowledged, alreadyWarning bool) bool {
	if committedSeconds <= 0 {
		return false
	}
	if acknowledged || alreadyWarning {
		return false
	}
	return elapsedSeconds > committedSeconds
}
