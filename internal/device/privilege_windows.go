//go:build windows

package device

import (
	"fmt"
	"os/user"
	"slices"

	"golang.org/x/sys/windows"
)

// builtinAdministrators is the well-known SID of BUILTIN\Administrators.
const builtinAdministrators = "S-1-5-32-544"

// IsElevated reports whether the process token is a member of the
// Administrators group, which is required to open \\.\PhysicalDriveN for
// writing.
func IsElevated() (bool, error) {
	// https://github.com/golang/go/issues/28804#issuecomment-505326268
	var sid *windows.SID
	err := windows.AllocateAndInitializeSid(
		&windows.SECURITY_NT_AUTHORITY,
		2,
		windows.SECURITY_BUILTIN_DOMAIN_RID,
		windows.DOMAIN_ALIAS_RID_ADMINS,
		0, 0, 0, 0, 0, 0,
		&sid)
	if err != nil {
		return false, fmt.Errorf("allocate administrators sid: %w", err)
	}
	// the sid is allocated by the system and must be freed
	defer windows.FreeSid(sid)

	member, err := windows.Token(0).IsMember(sid)
	if err != nil {
		return false, fmt.Errorf("check token membership: %w", err)
	}
	if !member {
		inGroup, _ := inAdminGroup()
		return false, fmt.Errorf("administrator privileges required (user in Administrators group: %t)", inGroup)
	}
	return true, nil
}

func inAdminGroup() (bool, error) {
	u, err := user.Current()
	if err != nil {
		return false, fmt.Errorf("current user: %w", err)
	}
	ids, err := u.GroupIds()
	if err != nil {
		return false, fmt.Errorf("group ids: %w", err)
	}
	return slices.Contains(ids, builtinAdministrators), nil
}
