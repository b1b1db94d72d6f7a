// internal/descriptor/descriptor.go
package descriptor

import (
	"fmt"
	"sort"
)

// Descriptor is the document the host product fetches at install time.
// It is assembled once, after every component has contributed, and is
// immutable afterwards.
type Descriptor struct {
	Key            string         `json:"key"`
	Name           string         `json:"name"`
	Description    string         `json:"description,omitempty"`
	Vendor         *Vendor        `json:"vendor,omitempty"`
	BaseURL        string         `json:"baseUrl"`
	Authentication Authentication `json:"authentication"`
	Lifecycle      *Lifecycle     `json:"lifecycle,omitempty"`
	Scopes         []string       `json:"scopes,omitempty"`
	APIVersion     int            `json:"apiVersion,omitempty"`
	Modules        map[string]any `json:"modules,omitempty"`
}

type Vendor struct {
	Name string `json:"name,omitempty"`
	URL  string `json:"url,omitempty"`
}

type Authentication struct {
	Type string `json:"type"`
}

type Lifecycle struct {
	Installed   string `json:"installed,omitempty"`
	Uninstalled string `json:"uninstalled,omitempty"`
}

// WebhookModule is one entry under modules.webhooks.
type WebhookModule struct {
	Event  string `json:"event"`
	URL    string `json:"url"`
	Filter string `json:"filter,omitempty"`
}

// Fragment is a partial contribution from one component. Components hand
// fragments to Assemble instead of mutating a shared document, so the
// result does not depend on registration order.
type Fragment struct {
	Lifecycle *Lifecycle
	Webhooks  []WebhookModule
	Scopes    []string
}

// Assemble merges base identity with every fragment into one immutable
// descriptor. Conflicting lifecycle contributions are an error: only one
// component may own the lifecycle paths.
func Assemble(base Base, fragments ...Fragment) (Descriptor, error) {
	d := Descriptor{
		Key:            base.Key,
		Name:           base.Name,
		Description:    base.Description,
		BaseURL:        base.BaseURL,
		Authentication: Authentication{Type: "jwt"},
		APIVersion:     base.APIVersion,
	}
	if base.Vendor.Name != "" || base.Vendor.URL != "" {
		v := base.Vendor
		d.Vendor = &v
	}
	scopes := map[string]struct{}{}
	for _, s := range base.Scopes {
		scopes[s] = struct{}{}
	}
	var webhooks []WebhookModule
	for _, f := range fragments {
		if f.Lifecycle != nil {
			if d.Lifecycle != nil {
				return Descriptor{}, fmt.Errorf("descriptor: lifecycle contributed twice")
			}
			lc := *f.Lifecycle
			d.Lifecycle = &lc
		}
		webhooks = append(webhooks, f.Webhooks...)
		for _, s := range f.Scopes {
			scopes[s] = struct{}{}
		}
	}
	if len(scopes) > 0 {
		d.Scopes = make([]string, 0, len(scopes))
		for s := range scopes {
			d.Scopes = append(d.Scopes, s)
		}
		sort.Strings(d.Scopes)
	}
	if len(webhooks) > 0 {
		sort.Slice(webhooks, func(i, j int) bool { return webhooks[i].Event < webhooks[j].Event })
		d.Modules = map[string]any{"webhooks": webhooks}
	}
	return d, nil
}
