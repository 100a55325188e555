// ABOUTME: Sync status snapshot for the charm backend
// ABOUTME: Backs the CLI sync status command

package charm

// Status describes the device's link to the charm server.
type Status struct {
	Host      string
	AutoSync  bool
	Connected bool
	AccountID string
	Keys      int
}

// Status never fails; an unreachable server reports Connected false.
func (c *Client) Status() Status {
	cfg := c.Config()
	st := Status{Host: cfg.Host, AutoSync: cfg.AutoSync}
	if id, err := c.ID(); err == nil {
		st.Connected = true
		st.AccountID = id
	}
	if keys, err := c.Keys(); err == nil {
		st.Keys = len(keys)
	}
	return st
}
