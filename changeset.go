package cshldap

import (
	"strconv"

	"github.com/go-ldap/ldap/v3"
)

// UserChangeSet is a sparse update for a single member entry, keyed by
// DN. A nil field leaves the corresponding attribute unchanged; a present
// field replaces the attribute's full value set. An empty change set is a
// no-op but still issues the modify call.
type UserChangeSet struct {
	DN string
	// DrinkBalance, when non-nil, replaces the drinkBalance counter.
	DrinkBalance *int64
	// IButton, when non-nil, replaces the member's token set. A non-nil
	// empty slice removes all tokens.
	IButton []string
}

// modifyRequest builds the modify request, one replace per present field.
func (cs *UserChangeSet) modifyRequest() *ldap.ModifyRequest {
	req := ldap.NewModifyRequest(cs.DN, nil)
	if cs.DrinkBalance != nil {
		req.Replace(attrDrinkBalance, []string{strconv.FormatInt(*cs.DrinkBalance, 10)})
	}
	if cs.IButton != nil {
		req.Replace(attrIButton, cs.IButton)
	}
	return req
}
