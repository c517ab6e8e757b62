package sautofetcher

import (
	"bytes"
	"context"
	"fmt"
	"sauto-parser/internal/core/domain"

	"github.com/PuerkitoBio/goquery"
)

// FetchDetailDocument загружает детальную страницу объявления и строит по ней дерево.
func (a *SautoFetcherAdapter) FetchDetailDocument(ctx context.Context, ref domain.AdvertRef) (*goquery.Document, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	adURL := a.detailURL(ref)

	body, err := a.visit(adURL)
	if err != nil {
		return nil, err
	}

	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("sauto adapter (Detail): failed to parse HTML from %s: %w", adURL, err)
	}
	return doc, nil
}

// FetchAdDetails извлекает и преобразует детальную информацию об объявлении.
func (a *SautoFetcherAdapter) FetchAdDetails(ctx context.Context, ref domain.AdvertRef) (domain.Record, error) {
	doc, err := a.FetchDetailDocument(ctx, ref)
	if err != nil {
		return domain.Record{}, err
	}

	record, err := a.extractor.Extract(doc, ref)
	if err != nil {
		return domain.Record{}, fmt.Errorf("sauto adapter (Detail): advert %d: %w", ref.ID, err)
	}
	return record, nil
}
