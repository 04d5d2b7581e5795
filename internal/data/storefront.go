package data

import (
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// VersionedURL makes a stored image reference absolute and appends the
// owner's update time, so clients refetch an image once it is replaced.
func VersionedURL(baseURL, ref string, updatedAt time.Time) string {
	if ref == "" {
		return ""
	}

	url := ref
	if !strings.HasPrefix(ref, "http://") && !strings.HasPrefix(ref, "https://") {
		url = strings.TrimRight(baseURL, "/") + "/" + strings.TrimLeft(ref, "/")
	}

	sep := "?"
	if strings.Contains(url, "?") {
		sep = "&"
	}

	return fmt.Sprintf("%s%sver=%d", url, sep, updatedAt.UnixMilli())
}

type StorefrontCategory struct {
	ID       int64  `json:"id"`
	Name     string `json:"name"`
	Slug     string `json:"slug"`
	ImageURL string `json:"imageUrl"`
}

type StorefrontSubcategory struct {
	ID         int64  `json:"id"`
	CategoryID int64  `json:"category_id"`
	Name       string `json:"name"`
	ImageURL   string `json:"imageUrl,omitempty"`
}

type StorefrontBanner struct {
	ID       int64  `json:"id"`
	Priority int    `json:"priority"`
	ImageURL string `json:"imageUrl"`
}

type StorefrontProduct struct {
	ID             int64           `json:"id"`
	Name           string          `json:"name"`
	Description    string          `json:"description,omitempty"`
	CategoryID     int64           `json:"category_id,omitempty"`
	SubCategoryID  int64           `json:"sub_category_id,omitempty"`
	Price          decimal.Decimal `json:"price"`
	DiscountPrice  decimal.Decimal `json:"discount_price"`
	ThumbImageURL  string          `json:"thumbImageUrl,omitempty"`
	DetailImageURL string          `json:"detailImageUrl,omitempty"`
	IsAvailable    bool            `json:"is_available"`
}

// StorefrontPagination is the paging block the mobile client reads.
type StorefrontPagination struct {
	CurrentPage   int  `json:"current_page"`
	PerPage       int  `json:"per_page"`
	TotalPages    int  `json:"total_pages"`
	TotalProducts int  `json:"total_products"`
	HasNext       bool `json:"has_next"`
	HasPrev       bool `json:"has_prev"`
}

func NewStorefrontPagination(page, perPage, total int) StorefrontPagination {
	totalPages := 0
	if perPage > 0 {
		totalPages = int(math.Ceil(float64(total) / float64(perPage)))
	}

	return StorefrontPagination{
		CurrentPage:   page,
		PerPage:       perPage,
		TotalPages:    totalPages,
		TotalProducts: total,
		HasNext:       page < totalPages,
		HasPrev:       page > 1,
	}
}

// Storefront shapes catalog rows for public clients.
type Storefront struct {
	BaseURL string
}

func (s Storefront) Category(c *Category) StorefrontCategory {
	return StorefrontCategory{
		ID:       c.ID,
		Name:     c.Name,
		Slug:     c.Slug,
		ImageURL: VersionedURL(s.BaseURL, c.ImagePath, c.UpdatedAt),
	}
}

func (s Storefront) Subcategory(c *Subcategory) StorefrontSubcategory {
	return StorefrontSubcategory{
		ID:         c.ID,
		CategoryID: c.CategoryID,
		Name:       c.Name,
		ImageURL:   VersionedURL(s.BaseURL, c.ImagePath, c.UpdatedAt),
	}
}

func (s Storefront) Banner(b *Banner) StorefrontBanner {
	return StorefrontBanner{
		ID:       b.ID,
		Priority: b.Priority,
		ImageURL: VersionedURL(s.BaseURL, b.ImageReference, b.UpdatedAt),
	}
}

// Product picks the price tier for the buyer. Listings omit the description
// and detail image; detail is set for the single product view.
func (s Storefront) Product(p *Product, wholesale, detail bool) StorefrontProduct {
	price, discount := p.Prices(wholesale)

	sp := StorefrontProduct{
		ID:            p.ID,
		Name:          p.Name,
		Price:         price,
		DiscountPrice: discount,
		ThumbImageURL: VersionedURL(s.BaseURL, p.ThumbImagePath, p.UpdatedAt),
		IsAvailable:   p.IsAvailable,
	}

	if detail {
		sp.Description = p.Description
		sp.CategoryID = p.CategoryID
		sp.SubCategoryID = p.SubCategoryID
		sp.DetailImageURL = VersionedURL(s.BaseURL, p.DetailImagePath, p.UpdatedAt)
	}

	return sp
}

func (s Storefront) Products(products []*Product, wholesale bool) []StorefrontProduct {
	out := make([]StorefrontProduct, 0, len(products))
	for _, p := range products {
		out = append(out, s.Product(p, wholesale, false))
	}
	return out
}
