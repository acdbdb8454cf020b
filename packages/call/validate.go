package call

// ValidStatusCode decides whether a status code counts as successful.
//
// An explicit set wins outright, even when empty: membership is the only
// check and the range bounds are ignored. Otherwise both bounds must be
// present and non-zero for the range check to apply; a zero bound is treated
// as absent, and an incomplete configuration classifies every code as
// invalid rather than silently passing.
func ValidStatusCode(code int, set []int, start, end *int) bool {
	if set != nil {
		for _, c := range set {
			if c == code {
				return true
			}
		}
		return false
	}

	if start != nil && *start != 0 && end != nil && *end != 0 {
		return *start <= code && code <= *end
	}

	return false
}

// specValid applies ValidStatusCode with the spec's configuration.
func specValid(s Spec, code int) bool {
	return ValidStatusCode(code, s.ValidStatusCodes, s.ValidStatusCodeStart, s.ValidStatusCodeEnd)
}
