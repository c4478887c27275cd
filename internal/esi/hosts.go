package esi

// Hosts names the Tranquility and Serenity (China) ESI base URLs.
type Hosts struct {
	Tranquility string
	China       string
}

// For returns the China host when china is set, Tranquility otherwise.
func (h Hosts) For(china bool) string {
	if china {
		return h.China
	}
	return h.Tranquility
}

// All returns both hosts, Tranquility first, skipping unset ones.
func (h Hosts) All() []string {
	var out []string
	for _, host := range []string{h.Tranquility, h.China} {
		if host != "" {
			out = append(out, host)
		}
	}
	return out
}
