package modrinth

import (
	"encoding/json"

	"github.com/tidwall/gjson"
)

// Project is the subset of the Modrinth project document mcpanel uses.
type Project struct {
	ID                string   `json:"id"`
	Team              string   `json:"team"`
	Slug              string   `json:"slug"`
	Title             string   `json:"title"`
	Description       string   `json:"description"`
	Categories        []string `json:"categories"`
	DisplayCategories []string `json:"display_categories"`
	ClientSide        string   `json:"client_side"`
	ServerSide        string   `json:"server_side"`
	ProjectType       string   `json:"project_type"`
	Downloads         int      `json:"downloads"`
	ProjectID         string   `json:"project_id"`
	Author            string   `json:"author"`
	Versions          []string `json:"versions"`
	Follows           int      `json:"follows"`
	DateCreated       string   `json:"date_created"`
	DateModified      string   `json:"date_modified"`
	LatestVersion     string   `json:"latest_version"`
	License           License  `json:"license"`

	IconURL            *string          `json:"icon_url"`
	Color              *int             `json:"color"`
	ThreadID           string           `json:"thread_id"`
	MonetizationStatus string           `json:"monetization_status"`
	Gallery            []map[string]any `json:"gallery"`
	FeaturedGallery    *string          `json:"featured_gallery"`
}

// License identifies a project license by SPDX id.
type License struct {
	ID   string  `json:"id"`
	Name string  `json:"name"`
	URL  *string `json:"url"`
}

// Versions is a raw version list as returned by the API, newest first.
type Versions []byte

// Len is the number of versions in the list.
func (v Versions) Len() int {
	return int(gjson.GetBytes(v, "#").Int())
}

// List decodes every version into a generic map.
func (v Versions) List() ([]map[string]any, error) {
	var out []map[string]any
	if err := json.Unmarshal(v, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// LatestFileURL returns the url of the first file of the newest version.
func LatestFileURL(v Versions) (string, error) {
	u := gjson.GetBytes(v, "0.files.0.url")
	if !u.Exists() || u.String() == "" {
		return "", ErrNoFiles
	}
	return u.String(), nil
}
