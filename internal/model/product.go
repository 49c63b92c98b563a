package model

import "github.com/shopspring/decimal"

// Product represents an item in the catalogue.
type Product struct {
	ID                      int             `json:"id" db:"id"`
	Name                    string          `json:"name" db:"name"`
	Description             string          `json:"description" db:"description"`
	Price                   decimal.Decimal `json:"price" db:"price"`
	Stock                   int             `json:"stock" db:"stock"`
	ProductCategories       []Category      `json:"productCategories"`
	ProductImages           []ProductImage  `json:"productImages"`
	ProductCategoriesNumber int             `json:"productCategoriesNumber"`
	ProductImagesNumber     int             `json:"productImagesNumber"`
	MainImage               string          `json:"mainImage"`
}

// ProductImage is one stored image URL of a product.
type ProductImage struct {
	ID        int    `json:"id" db:"id"`
	ProductID int    `json:"productId" db:"product_id"`
	Image     string `json:"image" db:"image"`
}

// ProductRequest is the payload of the product create and update endpoints.
// ProductImages holds base64 payloads on create; it is ignored on update.
type ProductRequest struct {
	ID                 int             `json:"id"`
	Name               string          `json:"name" validate:"required,max=50"`
	Description        string          `json:"description" validate:"required,max=500"`
	Price              decimal.Decimal `json:"price"`
	Stock              int             `json:"stock" validate:"gte=0"`
	ProductCategoryIDs []int           `json:"productCategoryIds" validate:"required,min=1,dive,gt=0"`
	ProductImages      []string        `json:"productImages"`
}

// ImageRequest adds images to, or removes the last image from, a product.
type ImageRequest struct {
	ProductID int      `json:"productId" validate:"required,gt=0"`
	Images    []string `json:"images"`
}

// Fill sets the derived counters from the loaded relations.
func (p *Product) Fill() {
	p.ProductCategoriesNumber = len(p.ProductCategories)
	p.ProductImagesNumber = len(p.ProductImages)
	p.MainImage = ""
	if len(p.ProductImages) > 0 {
		p.MainImage = p.ProductImages[0].Image
	}
}

// ImageURLs returns the image URLs in storage order.
func (p *Product) ImageURLs() []string {
	urls := make([]string, 0, len(p.ProductImages))
	for _, img := range p.ProductImages {
		urls = append(urls, img.Image)
	}
	return urls
}
