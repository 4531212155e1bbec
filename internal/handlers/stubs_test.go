package handlers

import (
	"context"

	"github.com/Micevski239/gerbera-sub000/internal/i18n"
	"github.com/Micevski239/gerbera-sub000/internal/services"
)

type stubCatalogService struct {
	page       services.ProductPage
	shop       services.ShopResult
	categories []services.Category
	occasions  []services.Occasion
	err        error

	lastQuery services.CatalogQuery
	lastShop  services.ShopQuery
}

func (s *stubCatalogService) QueryProducts(_ context.Context, query services.CatalogQuery) (services.ProductPage, error) {
	s.lastQuery = query
	return s.page, s.err
}

func (s *stubCatalogService) ShopProducts(_ context.Context, query services.ShopQuery) (services.ShopResult, error) {
	s.lastShop = query
	return s.shop, s.err
}

func (s *stubCatalogService) ListCategories(context.Context) ([]services.Category, error) {
	return s.categories, s.err
}

func (s *stubCatalogService) ListOccasions(context.Context) ([]services.Occasion, error) {
	return s.occasions, s.err
}

type stubHomepageService struct {
	homepage services.Homepage
	items    []services.SectionItem
	err      error

	lastLang    i18n.Language
	lastSection string
}

func (s *stubHomepageService) LoadHomepage(_ context.Context, lang i18n.Language) (services.Homepage, error) {
	s.lastLang = lang
	return s.homepage, s.err
}

func (s *stubHomepageService) SectionItems(_ context.Context, sectionID string) ([]services.SectionItem, error) {
	s.lastSection = sectionID
	return s.items, s.err
}

type stubSystemService struct {
	report services.HealthReport
	err    error
}

func (s *stubSystemService) Readiness(context.Context) (services.HealthReport, error) {
	return s.report, s.err
}
