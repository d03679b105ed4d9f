package parser

import "github.com/maltedev/landed-cost/internal/marketplace"

// Selectors lists the DOM strategies tried per field for one marketplace.
type Selectors struct {
	Title    []Strategy
	Price    []Strategy
	Category []Strategy
	Seller   []Strategy
	Image    []Strategy

	DefaultSeller   string
	DefaultCategory string
}

var (
	metaTitle = []Strategy{
		Attr(`meta[property="og:title"]`, "content"),
		Attr(`meta[name="twitter:title"]`, "content"),
	}
	metaPrice = []Strategy{
		Attr(`meta[property="product:price:amount"]`, "content"),
		Attr(`meta[property="og:price:amount"]`, "content"),
		Attr(`[itemprop="price"]`, "content"),
		Text(`[itemprop="price"]`),
	}
	metaImage = []Strategy{
		Attr(`meta[property="og:image"]`, "content"),
	}
)

func defaultSelectors() map[marketplace.ID]Selectors {
	return map[marketplace.ID]Selectors{
		marketplace.Amazon: {
			Title: []Strategy{Text("#productTitle"), Text("#title")},
			Price: []Strategy{
				Text("#corePriceDisplay_desktop_feature_div .a-price .a-offscreen"),
				Text("#priceblock_ourprice"),
				Text("#priceblock_dealprice"),
				Text(".a-price .a-offscreen"),
				Text(".a-price-whole"),
			},
			Category: []Strategy{Text("#wayfinding-breadcrumbs_feature_div .a-link-normal")},
			Seller:   []Strategy{Text("#merchant-info a"), Text("#sellerProfileTriggerId")},
			Image: []Strategy{
				Attr("#landingImage", "data-old-hires"),
				Attr("#landingImage", "src"),
				Attr("#imgBlkFront", "src"),
			},
			DefaultSeller: "Amazon",
		},
		marketplace.Flipkart: {
			Title: []Strategy{Text(".B_NuCI"), Text(".VU-ZEz"), Text("h1 span")},
			Price: []Strategy{
				Text("._30jeq3._16Jk6d"),
				Text(".Nx9bqj.CxhGGd"),
				Text("._30jeq3"),
			},
			Category: []Strategy{Text("._2whKao"), Text(".R0cyWM")},
			Seller:   []Strategy{Text("#sellerName span")},
			Image:    []Strategy{Attr("._396cs4", "src"), Attr(".DByuf4", "src")},

			DefaultSeller: "Flipkart",
		},
		marketplace.Myntra: {
			Title:    []Strategy{Text(".pdp-title"), Text(".pdp-name")},
			Price:    []Strategy{Text(".pdp-price strong"), Text(".pdp-price")},
			Category: []Strategy{Text(".breadcrumbs-container a:nth-child(3)")},
			Image: []Strategy{
				Attr(".image-grid-container img", "src"),
				Attr(".image-grid-image", "data-src"),
			},
			DefaultSeller:   "Myntra",
			DefaultCategory: "Fashion",
		},
		marketplace.Ajio: {
			Title:    []Strategy{Text(".prod-name"), Text("h1")},
			Price:    []Strategy{Text(".prod-sp"), Text(".prod-price-section .prod-sp")},
			Category: []Strategy{Text(".breadcrumb-sec li:nth-last-child(2) a")},
			Seller:   []Strategy{Text(".brand-name")},
			Image:    []Strategy{Attr(".rilrtl-lazy-img.img-alignment", "src")},

			DefaultSeller:   "AJIO",
			DefaultCategory: "Fashion",
		},
		marketplace.Nykaa: {
			Title:    []Strategy{Text(".css-1gc4x7i"), Text("h1")},
			Price:    []Strategy{Text(".css-1jczs19"), Text(".css-111z9ua")},
			Category: []Strategy{Text(".css-1uxnb1o li:nth-last-child(2) a")},
			Image:    []Strategy{Attr(".css-43m2vm img", "src")},

			DefaultSeller:   "Nykaa",
			DefaultCategory: "Beauty",
		},
	}
}
