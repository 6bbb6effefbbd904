package handlers

import (
	"encoding/xml"
	"fmt"
	"net/http"
	"strings"
	"time"

	"quill/internal/models"
	"quill/internal/services"
	"quill/internal/store"
	"quill/internal/utils"

	"github.com/gin-gonic/gin"
)

const (
	feedSize    = 20
	sitemapSize = 500
)

// FeedHandler publishes the latest posts as RSS 2.0, a sitemap and
// robots.txt.
type FeedHandler struct {
	posts   *services.PostService
	siteURL string
	title   string
}

func NewFeedHandler(posts *services.PostService, siteURL, title string) *FeedHandler {
	return &FeedHandler{posts: posts, siteURL: strings.TrimRight(siteURL, "/"), title: title}
}

type rssDoc struct {
	XMLName xml.Name   `xml:"rss"`
	Version string     `xml:"version,attr"`
	Channel rssChannel `xml:"channel"`
}

type rssChannel struct {
	Title         string    `xml:"title"`
	Link          string    `xml:"link"`
	Description   string    `xml:"description"`
	LastBuildDate string    `xml:"lastBuildDate"`
	Items         []rssItem `xml:"item"`
}

type rssItem struct {
	Title       string   `xml:"title"`
	Link        string   `xml:"link"`
	Description string   `xml:"description"`
	Categories  []string `xml:"category"`
	PubDate     string   `xml:"pubDate"`
	GUID        string   `xml:"guid"`
}

type urlSet struct {
	XMLName xml.Name     `xml:"urlset"`
	Xmlns   string       `xml:"xmlns,attr"`
	URLs    []sitemapURL `xml:"url"`
}

type sitemapURL struct {
	Loc        string  `xml:"loc"`
	LastMod    string  `xml:"lastmod"`
	ChangeFreq string  `xml:"changefreq"`
	Priority   float64 `xml:"priority"`
}

func (h *FeedHandler) postLink(post models.Post) string {
	return services.PostURL(h.siteURL, post.Slug)
}

// RSS handles GET /feed.xml.
func (h *FeedHandler) RSS(c *gin.Context) {
	posts, err := h.posts.List(c.Request.Context(), store.PostFilter{Limit: feedSize})
	if err != nil {
		Fail(c, err)
		return
	}

	doc := rssDoc{Version: "2.0", Channel: rssChannel{
		Title:         h.title,
		Link:          h.siteURL + "/",
		Description:   "Latest posts on " + h.title,
		LastBuildDate: time.Now().UTC().Format(time.RFC1123Z),
	}}
	for _, post := range posts {
		link := h.postLink(post)
		item := rssItem{
			Title:       post.Title,
			Link:        link,
			Description: utils.Excerpt(post.Text, 300),
			PubDate:     post.DateCreated.UTC().Format(time.RFC1123Z),
			GUID:        link,
		}
		if post.Category != nil {
			item.Categories = append(item.Categories, post.Category.Name)
		}
		for _, tag := range post.Tags {
			item.Categories = append(item.Categories, tag.Name)
		}
		doc.Channel.Items = append(doc.Channel.Items, item)
	}
	writeXML(c, "application/rss+xml; charset=utf-8", doc)
}

// Sitemap handles GET /sitemap.xml. Newer posts get a higher priority.
func (h *FeedHandler) Sitemap(c *gin.Context) {
	posts, err := h.posts.List(c.Request.Context(), store.PostFilter{Limit: sitemapSize})
	if err != nil {
		Fail(c, err)
		return
	}

	set := urlSet{Xmlns: "http://www.sitemaps.org/schemas/sitemap/0.9"}
	set.URLs = append(set.URLs, sitemapURL{
		Loc:        h.siteURL + "/",
		LastMod:    time.Now().UTC().Format("2006-01-02"),
		ChangeFreq: "daily",
		Priority:   1.0,
	})
	for _, post := range posts {
		age := time.Since(post.DateCreated).Hours() / 24
		freq, priority := "weekly", 0.6
		switch {
		case age < 7:
			freq, priority = "daily", 0.8
		case age < 30:
			priority = 0.7
		}
		set.URLs = append(set.URLs, sitemapURL{
			Loc:        h.postLink(post),
			LastMod:    post.DateUpdated.UTC().Format("2006-01-02"),
			ChangeFreq: freq,
			Priority:   priority,
		})
	}
	writeXML(c, "application/xml; charset=utf-8", set)
}

func (h *FeedHandler) RobotsTxt(c *gin.Context) {
	content := fmt.Sprintf("User-agent: *\nAllow: /\nDisallow: /api/v1/user/\n\nSitemap: %s/sitemap.xml\n", h.siteURL)
	c.Header("Content-Type", "text/plain; charset=utf-8")
	c.String(http.StatusOK, content)
}

func writeXML(c *gin.Context, contentType string, v any) {
	body, err := xml.MarshalIndent(v, "", "  ")
	if err != nil {
		Fail(c, err)
		return
	}
	c.Data(http.StatusOK, contentType, append([]byte(xml.Header), body...))
}
