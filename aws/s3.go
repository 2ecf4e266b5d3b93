package aws

import (
	"context"
	"fmt"
	"io"
	"time"

	"guestbook-api/blob"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/s3/manager"
	"github.com/aws/aws-sdk-go-v2/service/s3"
)

// Bodies above this size (or of unknown size) go through the multipart
// uploader instead of a single PutObject call.
const minMultipartSize = 100 << 20

var _ blob.Store = (*S3Client)(nil)

func (s *S3Client) Put(ctx context.Context, name string, body io.Reader, opts blob.PutOptions) (blob.Object, error) {
	input := &s3.PutObjectInput{
		Bucket:      s.Bucket,
		Key:         aws.String(name),
		Body:        body,
		ContentType: aws.String(opts.ContentType),
	}

	if opts.ContentLength >= 0 && opts.ContentLength < minMultipartSize {
		input.ContentLength = aws.Int64(opts.ContentLength)

		_, err := s.C.PutObject(ctx, input)
		if err != nil {
			return blob.Object{}, fmt.Errorf("failed to upload object, %w", err)
		}
	} else {
		u := manager.NewUploader(s.C, func(u *manager.Uploader) {
			u.Concurrency = 5
			u.PartSize = 6 << 20
		})

		_, err := u.Upload(ctx, input)
		if err != nil {
			return blob.Object{}, fmt.Errorf("failed to upload object, %w", err)
		}
	}

	return blob.Object{
		Name:       name,
		URL:        s.ObjectURL(name),
		Size:       max(opts.ContentLength, 0),
		UploadedAt: time.Now(),
	}, nil
}

func (s *S3Client) Download(ctx context.Context, name string) ([]byte, error) {
	out, err := s.C.GetObject(ctx, &s3.GetObjectInput{
		Bucket: s.Bucket,
		Key:    aws.String(name),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to download object, %w", err)
	}
	defer out.Body.Close()

	data, err := io.ReadAll(out.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read object body, %w", err)
	}

	return data, nil
}

func (s *S3Client) List(ctx context.Context) ([]blob.Object, error) {
	var objects []blob.Object

	paginator := s3.NewListObjectsV2Paginator(s.C, &s3.ListObjectsV2Input{
		Bucket: s.Bucket,
	})

	for paginator.HasMorePages() {
		page, err := paginator.NextPage(ctx)
		if err != nil {
			return nil, fmt.Errorf("failed to list objects, %w", err)
		}

		for _, obj := range page.Contents {
			o := blob.Object{
				Name: aws.ToString(obj.Key),
				URL:  s.ObjectURL(aws.ToString(obj.Key)),
				Size: aws.ToInt64(obj.Size),
			}

			if obj.LastModified != nil {
				o.UploadedAt = *obj.LastModified
			}

			objects = append(objects, o)
		}
	}

	return objects, nil
}

func (s *S3Client) PresignPut(ctx context.Context, name, contentType string, expiry time.Duration) (string, error) {
	req, err := s.Presign.PresignPutObject(ctx, &s3.PutObjectInput{
		Bucket:      s.Bucket,
		Key:         aws.String(name),
		ContentType: aws.String(contentType),
	}, func(o *s3.PresignOptions) {
		o.Expires = expiry
	})
	if err != nil {
		return "", fmt.Errorf("failed to presign upload, %w", err)
	}

	return req.URL, nil
}

func (s *S3Client) ObjectURL(name string) string {
	return s.PublicURL + "/" + name
}
