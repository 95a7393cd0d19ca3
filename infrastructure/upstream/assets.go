package upstream

import "strings"

// AssetResolver turns stored asset paths into absolute URLs.
type AssetResolver struct {
	base          string
	defaultAvatar string
}

// NewAssetResolver creates an AssetResolver. A blank defaultAvatar falls back
// to the bundled placeholder.
func NewAssetResolver(base, defaultAvatar string) AssetResolver {
	if defaultAvatar == "" {
		defaultAvatar = "/images/avata1.jpg"
	}
	return AssetResolver{base: strings.TrimRight(base, "/"), defaultAvatar: defaultAvatar}
}

// Avatar resolves an avatar path; an empty path is the placeholder image.
func (a AssetResolver) Avatar(path string) string {
	if strings.TrimSpace(path) == "" {
		return a.defaultAvatar
	}
	return a.Asset(path)
}

// Asset keeps absolute URLs and prefixes relative ones with the asset base.
func (a AssetResolver) Asset(path string) string {
	path = strings.TrimSpace(path)
	if path == "" {
		return ""
	}
	lower := strings.ToLower(path)
	if strings.HasPrefix(lower, "http://") || strings.HasPrefix(lower, "https://") || strings.HasPrefix(lower, "data:") {
		return path
	}
	if !strings.HasPrefix(path, "/") {
		path = "/" + path
	}
	return a.base + path
}
