// Package cshldap provides a pooled LDAP client for the CSH member
// directory.
//
// The client discovers directory servers through DNS SRV records,
// maintains a bounded pool of bound connections, and exposes a small set
// of typed operations against the member subtree:
//   - Substring search and exact lookups by uid, ibutton token, or
//     mobile number
//   - Sparse attribute updates through a UserChangeSet
//   - Account lock and unlock
//
// # Basic Usage
//
//	client, err := cshldap.New(&cshldap.Config{
//		BindDN:       "uid=drink,cn=sysaccounts,cn=etc,dc=csh,dc=rit,dc=edu",
//		BindPassword: password,
//	})
//	if err != nil {
//		log.Fatal(err)
//	}
//	defer client.Close()
//
//	user, err := client.GetUser(ctx, "jdoe")
//	if err != nil {
//		log.Printf("lookup failed: %v", err)
//		return
//	}
//	if user == nil {
//		log.Printf("no definitive match for jdoe")
//		return
//	}
//	fmt.Printf("%s (%s)\n", user.CN, user.UID)
//
// Exact lookups return a nil *User without an error when zero or more
// than one entry matches: an ambiguous match on a key that is expected
// to be unique is reported as "no definitive match" rather than an
// arbitrary pick.
//
// # Error Handling
//
// Failures are reported through typed errors that wrap the underlying
// cause:
//   - DiscoveryError: SRV resolution failed or returned no candidates
//   - ConnectError: dialing or binding a directory server failed
//   - SearchError: a search operation failed
//   - ModifyError: an update or lock operation failed
//   - DecodeError: a retrieved entry is missing a required attribute
//
// None of these are retried internally; retry policy belongs to the
// caller.
package cshldap
