// Package admin decides whether a principal is an administrator and what
// they may do in the back-office.
//
// A principal has at most one Record, holding a role and an explicit
// permission map. Two rules are deliberately hard guard clauses rather than
// map entries, so they stay auditable in one place each:
//
//   - super_admin implies every permission, regardless of the map's content.
//     A stale or empty map must never reduce a super_admin's access.
//   - Admin management (grant and revoke) is reserved to the super_admin
//     role. Holding manage_admins in the permission map does not delegate
//     it; the generic map grants features, never admin management.
//
// Unknown permission keys always resolve to false (closed world).
package admin
