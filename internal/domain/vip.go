package domain

// Role is the privilege of a VIP.
type Role string

const (
	RoleAdmin  Role = "ADMIN"
	RoleCaster Role = "CASTER"
)

// VIP is a privileged observer exempt from roster based kicking.
type VIP struct {
	SteamID int64
	Role    Role
}

// VIPSet is a per poll cycle snapshot of admins and casters.
type VIPSet struct {
	Admins  map[int64]bool
	Casters map[int64]bool
}

// SplitVIPs partitions a VIP list by role. Unknown roles are dropped.
func SplitVIPs(vips []VIP) VIPSet {
	set := VIPSet{
		Admins:  make(map[int64]bool),
		Casters: make(map[int64]bool),
	}
	for _, v := range vips {
		switch v.Role {
		case RoleAdmin:
			set.Admins[v.SteamID] = true
		case RoleCaster:
			set.Casters[v.SteamID] = true
		}
	}
	return set
}

// IsVIP reports whether steamID is an admin or caster.
func (s VIPSet) IsVIP(steamID int64) bool {
	return s.Admins[steamID] || s.Casters[steamID]
}

// IsAdmin reports whether steamID is an admin.
func (s VIPSet) IsAdmin(steamID int64) bool {
	return s.Admins[steamID]
}
