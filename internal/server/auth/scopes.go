package auth

import "github.com/aleksvdm/gopherchat/internal/common"

// CheckScopes fails with common.ErrInsufficientPermissions unless every
// required scope is present in granted. Pure and stateless; it runs after
// VerifyAccess on every protected call.
func CheckScopes(required, granted []string) error {
	if len(required) == 0 {
		return nil
	}

	set := make(map[string]struct{}, len(granted))
	for _, s := range granted {
		set[s] = struct{}{}
	}

	for _, s := range required {
		if _, ok := set[s]; !ok {
			return common.ErrInsufficientPermissions
		}
	}

	return nil
}
