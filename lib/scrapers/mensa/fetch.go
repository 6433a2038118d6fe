package mensa

import (
	"context"
	"errors"
	"fmt"
	"mensa-scraper/lib/restyutil"
	"mensa-scraper/lib/textutil"
	"net/url"
	"os"
	"path"
	"path/filepath"
	"sync/atomic"
	"time"

	cloudflarebp "github.com/DaRealFreak/cloudflare-bp-go"
	"github.com/go-resty/resty/v2"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
)

const DefaultDownloadTimeout = time.Second * 20

var ErrBadStatus = errors.New("unexpected response status")

type FetcherOptions struct {
	// defaults to DefaultDownloadTimeout
	Timeout   time.Duration
	UserAgent string
}

// Fetcher downloads dish images, at most once per destination file.
type Fetcher struct {
	http      *resty.Client
	downloads atomic.Int64
	cacheHits atomic.Int64
}

func NewFetcher(opts FetcherOptions) *Fetcher {
	timeout := opts.Timeout
	if timeout <= 0 {
		timeout = DefaultDownloadTimeout
	}

	client := resty.New()
	client.GetClient().Transport = cloudflarebp.AddCloudFlareByPass(client.GetClient().Transport)
	if opts.UserAgent != "" {
		client.SetHeader("user-agent", opts.UserAgent)
	}
	client.SetTimeout(timeout)
	restyutil.InstrumentClient(client, tracer, restyInstrumentOutput)

	return &Fetcher{http: client}
}

// Downloads is the number of image requests sent over the network.
func (f *Fetcher) Downloads() int64 {
	return f.downloads.Load()
}

// CacheHits is the number of fetches answered by a file already on disk.
func (f *Fetcher) CacheHits() int64 {
	return f.cacheHits.Load()
}

// ImageFileName derives "<mensa-slug>_<type-slug><ext>" where ext comes
// from the image url and defaults to ".jpg".
func ImageFileName(mensa, dishType string, imageUrl *url.URL) string {
	ext := path.Ext(imageUrl.Path)
	if ext == "" || ext == "." {
		ext = ".jpg"
	}
	return textutil.Slug(mensa) + "_" + textutil.Slug(dishType) + ext
}

// Fetch stores the image at imageUrl in dir and returns its path. When the
// destination file already exists nothing is downloaded. The file only
// appears once the whole body has been read.
func (f *Fetcher) Fetch(ctx context.Context, imageUrl *url.URL, dir, mensa, dishType string) (string, error) {
	ctx, span := tracer.Start(ctx, "Fetch")
	defer span.End()

	dest := filepath.Join(dir, ImageFileName(mensa, dishType, imageUrl))
	span.SetAttributes(
		attribute.String("url", imageUrl.String()),
		attribute.String("dest", dest),
	)

	_, err := os.Stat(dest)
	if err == nil {
		f.cacheHits.Add(1)
		span.AddEvent("image already on disk")
		return dest, nil
	}
	if !errors.Is(err, os.ErrNotExist) {
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to stat destination")
		return "", err
	}

	err = os.MkdirAll(dir, 0755)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to create directory")
		return "", err
	}

	f.downloads.Add(1)
	res, err := f.http.R().
		SetContext(ctx).
		Get(imageUrl.String())
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to fetch image")
		return "", err
	}
	if res.IsError() {
		span.SetStatus(codes.Error, "bad status")
		return "", fmt.Errorf("%w: %s: %s", ErrBadStatus, imageUrl, res.Status())
	}

	err = writeAtomic(dir, dest, res.Body())
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to write image")
		return "", err
	}
	return dest, nil
}

func writeAtomic(dir, dest string, contents []byte) error {
	tmp, err := os.CreateTemp(dir, ".download-*")
	if err != nil {
		return err
	}
	_, err = tmp.Write(contents)
	closeErr := tmp.Close()
	if err == nil {
		err = closeErr
	}
	if err == nil {
		err = os.Chmod(tmp.Name(), 0644)
	}
	if err == nil {
		err = os.Rename(tmp.Name(), dest)
	}
	if err != nil {
		os.Remove(tmp.Name())
		return err
	}
	return nil
}
