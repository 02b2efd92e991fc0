// Package routepath stores canonical HTTP paths served or matched by sitegate.
package routepath

const (
	Root              = "/"
	Health            = "/up"
	Robots            = "/robots.txt"
	RobotsHandler     = "/api/robots"
	Sitemap           = "/sitemap.xml"
	Favicon           = "/favicon.ico"
	APIPrefix         = "/api/"
	BuildAssetsPrefix = "/_next/"
	StaticPrefix      = "/static/"
	ImagesPrefix      = "/images/"
	IconsPrefix       = "/icons/"
	FontsPrefix       = "/fonts/"
)
