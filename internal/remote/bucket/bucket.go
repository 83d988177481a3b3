// Package bucket lists generated images stored as S3 objects laid out as
// {prefix}{userID}/{imageID}.{ext}.
package bucket

import (
	"context"
	"fmt"
	"path"
	"sort"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"

	"github.com/abelbrown/lessonvault/internal/remote"
)

// Limit caps the images returned per listing.
const Limit = 50

var imageExt = map[string]bool{".png": true, ".jpg": true, ".jpeg": true, ".webp": true, ".gif": true}

// Options configures a Bucket.
type Options struct {
	Name    string
	Prefix  string // e.g. "generated/"
	BaseURL string // public URL the object keys are appended to
}

// Bucket reads image listings from one S3 bucket.
type Bucket struct {
	api     s3.ListObjectsV2APIClient
	name    string
	prefix  string
	baseURL string
}

// New creates a Bucket over any ListObjectsV2 client.
func New(api s3.ListObjectsV2APIClient, opts Options) *Bucket {
	return &Bucket{
		api:     api,
		name:    opts.Name,
		prefix:  opts.Prefix,
		baseURL: strings.TrimRight(opts.BaseURL, "/"),
	}
}

// NewClient builds an S3 client from the default AWS credential chain.
func NewClient(ctx context.Context, region string) (*s3.Client, error) {
	var opts []func(*config.LoadOptions) error
	if region != "" {
		opts = append(opts, config.WithRegion(region))
	}
	cfg, err := config.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("bucket: load aws config: %w", err)
	}
	return s3.NewFromConfig(cfg), nil
}

// ForUser returns the image source for one user's folder.
func (b *Bucket) ForUser(userID string) remote.ImageSource {
	return &userImages{b: b, uid: userID}
}

type userImages struct {
	b   *Bucket
	uid string
}

// ListImages lists the user's images, newest first. S3 listings are always
// read through, so force changes nothing.
func (u *userImages) ListImages(ctx context.Context, _ bool) ([]remote.ImageRecord, error) {
	return u.b.List(ctx, u.uid)
}

// List returns up to Limit images under the user's folder, newest first.
func (b *Bucket) List(ctx context.Context, userID string) ([]remote.ImageRecord, error) {
	if userID == "" {
		return nil, fmt.Errorf("bucket: empty user id")
	}
	folder := b.prefix + userID + "/"
	p := s3.NewListObjectsV2Paginator(b.api, &s3.ListObjectsV2Input{
		Bucket: aws.String(b.name),
		Prefix: aws.String(folder),
	})

	out := []remote.ImageRecord{}
	for p.HasMorePages() {
		page, err := p.NextPage(ctx)
		if err != nil {
			return nil, fmt.Errorf("bucket: list %s/%s: %w", b.name, folder, err)
		}
		for _, obj := range page.Contents {
			key := aws.ToString(obj.Key)
			ext := strings.ToLower(path.Ext(key))
			if !imageExt[ext] || path.Dir(key)+"/" != folder {
				continue
			}
			out = append(out, remote.ImageRecord{
				ID:          strings.TrimSuffix(path.Base(key), path.Ext(key)),
				UserID:      userID,
				ImageURL:    b.baseURL + "/" + key,
				Status:      "success",
				GeneratedAt: aws.ToTime(obj.LastModified),
			})
		}
	}

	sort.SliceStable(out, func(i, j int) bool {
		return out[i].GeneratedAt.After(out[j].GeneratedAt)
	})
	if len(out) > Limit {
		out = out[:Limit]
	}
	return out, nil
}
