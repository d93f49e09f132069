package model

import "time"

// Role names carried in the JWT "role" claim.
const (
    RoleUser       = "USER"
    RoleOrganizer  = "ORGANIZER"
    RoleSuperAdmin = "SUPER_ADMIN"
)

// User represents an account record as stored in the `users` table.
// Users, organizers and super admins share the table and are told
// apart by Role.  The json tags are omitted because handlers build
// their own response shapes.
//
// Fields:
//  ID        – primary key identifier of the account.
//  Email     – unique email address, used as the notification target.
//  Name      – display name, used in notification bodies.
//  Role      – USER, ORGANIZER or SUPER_ADMIN.
//  IsActive  – whether the account is active.
//  CreatedAt – timestamp of creation.
//  UpdatedAt – timestamp of last update.
type User struct {
    ID        uint64    // users.id
    Email     string    // users.email
    Name      string    // users.name
    Role      string    // users.role
    IsActive  bool      // users.is_active
    CreatedAt time.Time // users.created_at
    UpdatedAt time.Time // users.updated_at
}
