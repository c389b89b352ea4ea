package usecase

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"lojaia/internal/domain/model"
	repo "lojaia/internal/repository"

	"github.com/shopspring/decimal"
)

type HTTPError struct {
	Status  int
	Message string
}

func (e *HTTPError) Error() string {
	return fmt.Sprintf("%d: %s", e.Status, e.Message)
}

func NewHTTPError(status int, message string) error {
	return &HTTPError{
		Status:  status,
		Message: message,
	}
}

func AsHTTPError(err error) (*HTTPError, bool) {
	var he *HTTPError
	ok := errors.As(err, &he)
	return he, ok
}

// 説明文の生成。失敗してもエラーにはせず固定文言を返す約束。
type DescriptionGenerator interface {
	GenerateProductDescription(ctx context.Context, productName string) string
}

type ProductUsecase struct {
	productRepo   repo.ProductRepository
	categoryRepo  repo.CategoryRepository
	orderItemRepo repo.OrderItemRepository
	descGen       DescriptionGenerator
	mediaBaseURL  string
}

// DI
func NewProductUsecase(
	productRepo repo.ProductRepository,
	categoryRepo repo.CategoryRepository,
	orderItemRepo repo.OrderItemRepository,
	descGen DescriptionGenerator,
	mediaBaseURL string,
) *ProductUsecase {
	return &ProductUsecase{
		productRepo:   productRepo,
		categoryRepo:  categoryRepo,
		orderItemRepo: orderItemRepo,
		descGen:       descGen,
		mediaBaseURL:  strings.TrimRight(mediaBaseURL, "/"),
	}
}

// GET /productsの入力DTO
type ListProductsInput struct {
	Q            string
	CategorySlug string
}

type ProductOutput struct {
	ID          int64     `json:"id"`
	CategoryID  *int64    `json:"category_id"`
	Name        string    `json:"name"`
	Slug        string    `json:"slug"`
	Description string    `json:"description"`
	Price       string    `json:"price"`
	IsActive    bool      `json:"is_active"`
	ImageURL    string    `json:"image_url"`
	CreatedAt   time.Time `json:"created_at"`
}

func (u *ProductUsecase) ListProducts(ctx context.Context, in ListProductsInput) ([]ProductOutput, error) {
	if len(in.Q) > 100 {
		return nil, NewHTTPError(http.StatusBadRequest, "q too long")
	}

	items, err := u.productRepo.List(ctx, repo.ProductListQuery{
		Q:            strings.TrimSpace(in.Q),
		CategorySlug: strings.TrimSpace(in.CategorySlug),
	})
	if err != nil {
		return nil, NewHTTPError(http.StatusInternalServerError, "db error")
	}

	out := make([]ProductOutput, 0, len(items))
	for _, p := range items {
		out = append(out, u.toProductOutput(p))
	}
	return out, nil
}

func (u *ProductUsecase) GetProductDetail(ctx context.Context, productID int64) (ProductOutput, error) {
	if productID <= 0 {
		return ProductOutput{}, NewHTTPError(http.StatusBadRequest, "invalid product id")
	}

	p, err := u.productRepo.FindByID(ctx, productID)
	if err == repo.ErrNotFound {
		return ProductOutput{}, NewHTTPError(http.StatusNotFound, "not found")
	}
	if err != nil {
		return ProductOutput{}, NewHTTPError(http.StatusInternalServerError, "db error")
	}
	return u.toProductOutput(p), nil
}

type AdminProductInput struct {
	CategoryID  *int64
	Name        string
	Slug        string
	Description string
	Price       decimal.Decimal
	IsActive    bool
	ImageURL    string
}

func (u *ProductUsecase) AdminCreateProduct(ctx context.Context, in AdminProductInput) (ProductOutput, error) {
	if strings.TrimSpace(in.Name) == "" {
		return ProductOutput{}, NewHTTPError(http.StatusBadRequest, "name required")
	}
	if in.Price.IsNegative() {
		return ProductOutput{}, NewHTTPError(http.StatusBadRequest, "price must be >= 0")
	}
	if err := u.validateCategoryID(ctx, in.CategoryID); err != nil {
		return ProductOutput{}, err
	}

	//slug未指定ならnameから作る
	slug := strings.TrimSpace(in.Slug)
	if slug == "" {
		slug = Slugify(in.Name)
	}

	now := time.Now()
	p, err := u.productRepo.Create(ctx, model.Product{
		CategoryID:  in.CategoryID,
		Name:        strings.TrimSpace(in.Name),
		Slug:        slug,
		Description: in.Description,
		Price:       in.Price,
		IsActive:    in.IsActive,
		ImageURL:    in.ImageURL,
		CreatedAt:   now,
		UpdatedAt:   now,
	})
	if err != nil {
		//slugのunique制約違反もここに落ちる
		return ProductOutput{}, NewHTTPError(http.StatusBadRequest, "could not create product (slug may be taken)")
	}
	return u.toProductOutput(p), nil
}

func (u *ProductUsecase) AdminUpdateProduct(ctx context.Context, productID int64, in AdminProductInput) error {
	if productID <= 0 {
		return NewHTTPError(http.StatusBadRequest, "invalid product id")
	}
	if strings.TrimSpace(in.Name) == "" {
		return NewHTTPError(http.StatusBadRequest, "name required")
	}
	if in.Price.IsNegative() {
		return NewHTTPError(http.StatusBadRequest, "price must be >= 0")
	}
	if err := u.validateCategoryID(ctx, in.CategoryID); err != nil {
		return err
	}

	slug := strings.TrimSpace(in.Slug)
	if slug == "" {
		slug = Slugify(in.Name)
	}

	err := u.productRepo.Update(ctx, model.Product{
		ID:          productID,
		CategoryID:  in.CategoryID,
		Name:        strings.TrimSpace(in.Name),
		Slug:        slug,
		Description: in.Description,
		Price:       in.Price,
		IsActive:    in.IsActive,
		ImageURL:    in.ImageURL,
		UpdatedAt:   time.Now(),
	})
	if err == repo.ErrNotFound {
		return NewHTTPError(http.StatusNotFound, "not found")
	}
	if err != nil {
		return NewHTTPError(http.StatusInternalServerError, "db error")
	}
	return nil
}

// カテゴリ指定ありなら実在チェックする（nilは未分類でOK）
func (u *ProductUsecase) validateCategoryID(ctx context.Context, categoryID *int64) error {
	if categoryID == nil {
		return nil
	}
	_, err := u.categoryRepo.FindByID(ctx, *categoryID)
	if err == repo.ErrNotFound {
		return NewHTTPError(http.StatusBadRequest, "invalid category_id")
	}
	if err != nil {
		return NewHTTPError(http.StatusInternalServerError, "db error")
	}
	return nil
}

// 注文明細から参照されている商品は消せない
func (u *ProductUsecase) AdminDeleteProduct(ctx context.Context, productID int64) error {
	if productID <= 0 {
		return NewHTTPError(http.StatusBadRequest, "invalid product id")
	}

	refs, err := u.orderItemRepo.CountByProductID(ctx, productID)
	if err != nil {
		return NewHTTPError(http.StatusInternalServerError, "db error")
	}
	if refs > 0 {
		return NewHTTPError(http.StatusConflict, "product is referenced by orders")
	}

	err = u.productRepo.SoftDelete(ctx, productID)
	if err == repo.ErrNotFound {
		return NewHTTPError(http.StatusNotFound, "not found")
	}
	if err != nil {
		return NewHTTPError(http.StatusInternalServerError, "db error")
	}
	return nil
}

// AI説明文を生成して商品に保存する。生成は失敗してもフォールバック文言になる。
func (u *ProductUsecase) AdminGenerateDescription(ctx context.Context, productID int64) (string, error) {
	if productID <= 0 {
		return "", NewHTTPError(http.StatusBadRequest, "invalid product id")
	}

	p, err := u.productRepo.FindByID(ctx, productID)
	if err == repo.ErrNotFound {
		return "", NewHTTPError(http.StatusNotFound, "not found")
	}
	if err != nil {
		return "", NewHTTPError(http.StatusInternalServerError, "db error")
	}

	description := u.descGen.GenerateProductDescription(ctx, p.Name)

	if err := u.productRepo.UpdateDescription(ctx, productID, description); err != nil {
		return "", NewHTTPError(http.StatusInternalServerError, "db error")
	}
	return description, nil
}

// 価格は常に小数2桁で返す
func (u *ProductUsecase) toProductOutput(p model.Product) ProductOutput {
	return ProductOutput{
		ID:          p.ID,
		CategoryID:  p.CategoryID,
		Name:        p.Name,
		Slug:        p.Slug,
		Description: p.Description,
		Price:       p.Price.StringFixed(2),
		IsActive:    p.IsActive,
		ImageURL:    u.resolveImageURL(p.ImageURL),
		CreatedAt:   p.CreatedAt,
	}
}

// 相対パスの画像はメディアベースURLで絶対URLにする
func (u *ProductUsecase) resolveImageURL(raw string) string {
	if raw == "" || u.mediaBaseURL == "" {
		return raw
	}
	if strings.HasPrefix(raw, "http://") || strings.HasPrefix(raw, "https://") {
		return raw
	}
	return u.mediaBaseURL + "/" + strings.TrimLeft(raw, "/")
}

// Slugifyはnameを小文字・ハイフン区切りのslugへ正規化する。
func Slugify(name string) string {
	var b strings.Builder
	lastHyphen := true

	for _, r := range strings.ToLower(strings.TrimSpace(name)) {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9':
			b.WriteRune(r)
			lastHyphen = false
		default:
			if !lastHyphen {
				b.WriteByte('-')
				lastHyphen = true
			}
		}
	}

	return strings.TrimRight(b.String(), "-")
}
