package models

// SiteSettings is the display configuration edited from the back office and
// mirrored to the on-device cache.
type SiteSettings struct {
	Title       string `json:"title"`
	Description string `json:"description"`
	UpdatedAt   string `json:"updatedAt,omitempty"`
}

// DefaultSiteSettings is served when no settings have been stored yet.
func DefaultSiteSettings() SiteSettings {
	return SiteSettings{
		Title:       "World Peas",
		Description: "新鲜健康的农产品直送到家",
	}
}

// PageContent is one static page (title + body).
type PageContent struct {
	Title   string `json:"title"`
	Content string `json:"content"`
}

// PagesContent holds the static pages reachable from the menu.
type PagesContent struct {
	Newsstand PageContent `json:"newsstand"`
	About     PageContent `json:"about"`
	UpdatedAt string      `json:"updatedAt,omitempty"`
}

func DefaultPagesContent() PagesContent {
	return PagesContent{
		Newsstand: PageContent{
			Title:   "新闻厅",
			Content: "欢迎来到新闻厅！这里将展示最新的新闻和资讯。",
		},
		About: PageContent{
			Title:   "关于我们",
			Content: "欢迎了解我们！我们致力于提供优质的产品和服务。",
		},
	}
}

// Identity is the locally held projection of the authenticated user, derived
// from a token validated by the identity collaborator.
type Identity struct {
	FullName  string `json:"fullName"`
	Email     string `json:"email"`
	AvatarURL string `json:"avatarUrl,omitempty"`
}
