package cshldap

import (
	"regexp"
	"strconv"

	"github.com/go-ldap/ldap/v3"
)

// Attribute names of the CSH user schema.
const (
	attrCN               = "cn"
	attrUID              = "uid"
	attrMemberOf         = "memberOf"
	attrKrbPrincipalName = "krbPrincipalName"
	attrMail             = "mail"
	attrMobile           = "mobile"
	attrIButton          = "ibutton"
	attrDrinkBalance     = "drinkBalance"
	attrNSAccountLock    = "nsAccountLock"
)

// groupPattern extracts a group's short name from a memberOf DN under the
// group subtree. Compiled once; shared read-only.
var groupPattern = regexp.MustCompile(`cn=(\w+),` + GroupBaseDN)

// User is a decoded member entry. Multi-valued fields preserve the order
// the directory returned, which is not guaranteed stable across calls.
type User struct {
	// DN uniquely identifies the entry and addresses modify operations.
	DN string
	CN string
	// UID is the login identifier.
	UID string
	// Groups holds the short names of the member's groups under the group
	// subtree. Memberships outside that subtree are not represented.
	Groups []string
	// KrbPrincipalName is the Kerberos identity.
	KrbPrincipalName string
	Mail             []string
	Mobile           []string
	// IButton holds the member's registered ibutton tokens.
	IButton []string
	// DrinkBalance is nil when the attribute is absent or unparsable.
	DrinkBalance *int64
}

// userFromEntry decodes a raw directory entry into a User.
//
// cn, uid, and krbPrincipalName are required; a missing one yields a
// *DecodeError. Multi-valued attributes default to an empty list when
// absent. An absent or unparsable drinkBalance degrades to nil rather
// than failing: a malformed counter on an otherwise valid member must not
// make the member invisible.
func userFromEntry(entry *ldap.Entry) (*User, error) {
	user := &User{
		DN:      entry.DN,
		Groups:  extractGroups(entry.GetAttributeValues(attrMemberOf)),
		Mail:    attributeValues(entry, attrMail),
		Mobile:  attributeValues(entry, attrMobile),
		IButton: attributeValues(entry, attrIButton),
	}

	for _, required := range []struct {
		attr   string
		target *string
	}{
		{attrCN, &user.CN},
		{attrUID, &user.UID},
		{attrKrbPrincipalName, &user.KrbPrincipalName},
	} {
		value := entry.GetAttributeValue(required.attr)
		if value == "" {
			return nil, &DecodeError{DN: entry.DN, Attribute: required.attr, Err: ErrMissingAttribute}
		}
		*required.target = value
	}

	if raw := entry.GetAttributeValue(attrDrinkBalance); raw != "" {
		if balance, err := strconv.ParseInt(raw, 10, 64); err == nil {
			user.DrinkBalance = &balance
		}
	}

	return user, nil
}

// extractGroups maps memberOf values to group short names, preserving
// order. Values outside the group subtree are dropped silently.
func extractGroups(memberOf []string) []string {
	groups := make([]string, 0, len(memberOf))
	for _, dn := range memberOf {
		if m := groupPattern.FindStringSubmatch(dn); m != nil {
			groups = append(groups, m[1])
		}
	}
	return groups
}

// attributeValues returns the values of an attribute, or an empty list
// when the attribute is absent.
func attributeValues(entry *ldap.Entry, attribute string) []string {
	values := entry.GetAttributeValues(attribute)
	if values == nil {
		return []string{}
	}
	return values
}
