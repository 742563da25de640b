package session

import "mediagrid-be/internal/platform/docstore"

const usersCollection = "users"

// UserProfile is the document-store view of a registered person,
// including both sides of the follow graph.
type UserProfile struct {
	UID         string   `json:"uid"`
	Email       string   `json:"email,omitempty"`
	DisplayName string   `json:"displayName"`
	PhotoURL    string   `json:"photoURL,omitempty"`
	Bio         string   `json:"bio,omitempty"`
	Followers   []string `json:"followers"`
	Following   []string `json:"following"`
	IsPrivate   bool     `json:"isPrivate"`
}

// Patch is a partial profile update. Nil fields are unchanged; slices
// replace the stored set wholesale when non-nil.
type Patch struct {
	DisplayName *string
	PhotoURL    *string
	Bio         *string
	IsPrivate   *bool
	Following   []string
	Followers   []string
}

func (p Patch) docData() docstore.Data {
	data := docstore.Data{}
	if p.DisplayName != nil {
		data["displayName"] = *p.DisplayName
	}
	if p.PhotoURL != nil {
		data["photoURL"] = *p.PhotoURL
	}
	if p.Bio != nil {
		data["bio"] = *p.Bio
	}
	if p.IsPrivate != nil {
		data["isPrivate"] = *p.IsPrivate
	}
	if p.Following != nil {
		data["following"] = toAnySlice(p.Following)
	}
	if p.Followers != nil {
		data["followers"] = toAnySlice(p.Followers)
	}
	return data
}

func (p Patch) applyTo(profile *UserProfile) {
	if p.DisplayName != nil {
		profile.DisplayName = *p.DisplayName
	}
	if p.PhotoURL != nil {
		profile.PhotoURL = *p.PhotoURL
	}
	if p.Bio != nil {
		profile.Bio = *p.Bio
	}
	if p.IsPrivate != nil {
		profile.IsPrivate = *p.IsPrivate
	}
	if p.Following != nil {
		profile.Following = append([]string(nil), p.Following...)
	}
	if p.Followers != nil {
		profile.Followers = append([]string(nil), p.Followers...)
	}
}

func (u *UserProfile) docData() docstore.Data {
	return docstore.Data{
		"uid":         u.UID,
		"email":       u.Email,
		"displayName": u.DisplayName,
		"photoURL":    u.PhotoURL,
		"bio":         u.Bio,
		"followers":   toAnySlice(u.Followers),
		"following":   toAnySlice(u.Following),
		"isPrivate":   u.IsPrivate,
	}
}

// ProfileFromDoc decodes a users-collection document. JSON round-trips
// deliver arrays as []interface{}, so the sets are rebuilt element-wise.
func ProfileFromDoc(data docstore.Data) *UserProfile {
	if data == nil {
		return nil
	}
	return &UserProfile{
		UID:         asString(data["uid"]),
		Email:       asString(data["email"]),
		DisplayName: asString(data["displayName"]),
		PhotoURL:    asString(data["photoURL"]),
		Bio:         asString(data["bio"]),
		Followers:   asStringSlice(data["followers"]),
		Following:   asStringSlice(data["following"]),
		IsPrivate:   asBool(data["isPrivate"]),
	}
}

func (u *UserProfile) clone() *UserProfile {
	if u == nil {
		return nil
	}
	out := *u
	out.Followers = append([]string(nil), u.Followers...)
	out.Following = append([]string(nil), u.Following...)
	return &out
}

func contains(set []string, v string) bool {
	for _, s := range set {
		if s == v {
			return true
		}
	}
	return false
}

func remove(set []string, v string) []string {
	out := make([]string, 0, len(set))
	for _, s := range set {
		if s != v {
			out = append(out, s)
		}
	}
	return out
}

func toAnySlice(in []string) []interface{} {
	out := make([]interface{}, 0, len(in))
	for _, s := range in {
		out = append(out, s)
	}
	return out
}

func asString(v interface{}) string {
	s, _ := v.(string)
	return s
}

func asBool(v interface{}) bool {
	b, _ := v.(bool)
	return b
}

func asStringSlice(v interface{}) []string {
	switch vv := v.(type) {
	case []string:
		return append([]string(nil), vv...)
	case []interface{}:
		out := make([]string, 0, len(vv))
		for _, e := range vv {
			if s, ok := e.(string); ok {
				out = append(out, s)
			}
		}
		return out
	default:
		return []string{}
	}
}
