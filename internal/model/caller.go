package model

// Caller identifies who is invoking an operation.  Handlers build it
// from the authenticated account and pass it explicitly into every
// service call.
type Caller struct {
    ID         string
    IsAdmin    bool
    IsApproved bool
}

// Authenticated reports whether the caller carries an identity.
func (c Caller) Authenticated() bool { return c.ID != "" }

// Member reports whether the caller may use sessions and registrations.
// Administrators count as members even before approval.
func (c Caller) Member() bool { return c.Authenticated() && (c.IsApproved || c.IsAdmin) }

// Admin reports whether the caller holds administrator rights.
func (c Caller) Admin() bool { return c.Authenticated() && c.IsAdmin }
