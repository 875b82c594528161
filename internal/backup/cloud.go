package backup

import (
	"context"
	"fmt"
	"io/fs"
	"os"
	"path"
	"path/filepath"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/convox/logger"
	"github.com/rusenback/webtopd/internal/executor"
	"github.com/rusenback/webtopd/internal/fault"
	"github.com/rusenback/webtopd/internal/model"
)

// CloudUploader copies a container's backup off the host
type CloudUploader interface {
	Upload(ctx context.Context, container string) model.CommandResult
}

// ScriptUploader forwards the cloud step to the lifecycle script
type ScriptUploader struct {
	Exec executor.Runner
}

func (u *ScriptUploader) Upload(ctx context.Context, container string) model.CommandResult {
	return u.Exec.Run(ctx, "backup-cloud", container)
}

// S3API is the subset of the S3 client used for uploads
type S3API interface {
	PutObject(ctx context.Context, params *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
}

// S3Uploader uploads the newest backup directory of a container to a bucket,
// one object per file under <Prefix>/<backup name>/
type S3Uploader struct {
	Client  S3API
	Bucket  string
	Prefix  string
	Catalog *Catalog
	Logger  *logger.Logger
}

// NewS3Uploader builds an uploader from the default AWS credential chain
func NewS3Uploader(ctx context.Context, bucket, region, prefix string, catalog *Catalog, log *logger.Logger) (*S3Uploader, error) {
	opts := []func(*config.LoadOptions) error{}
	if region != "" {
		opts = append(opts, config.WithRegion(region))
	}

	cfg, err := config.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return nil, fault.Wrap(fault.KindExecutor, err, "load aws config")
	}

	return &S3Uploader{
		Client:  s3.NewFromConfig(cfg),
		Bucket:  bucket,
		Prefix:  prefix,
		Catalog: catalog,
		Logger:  log,
	}, nil
}

func (u *S3Uploader) Upload(ctx context.Context, container string) model.CommandResult {
	log := u.Logger.At("upload").Start()

	info, dir, err := u.Catalog.Latest(container)
	if err != nil {
		return model.Failure(fault.New(fault.KindExecutor, err))
	}

	var files int
	var bytes int64

	err = filepath.WalkDir(dir, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.Type().IsRegular() {
			return nil
		}

		rel, err := filepath.Rel(dir, p)
		if err != nil {
			return err
		}

		n, err := u.put(ctx, path.Join(u.Prefix, info.Name, filepath.ToSlash(rel)), p)
		if err != nil {
			return err
		}

		files++
		bytes += n
		return nil
	})
	if err != nil {
		log.Error(err)
		return model.Failure(fault.Wrap(fault.KindExecutor, err, "upload backup"))
	}

	msg := fmt.Sprintf("Uploaded %s (%d files, %.2f MB) to s3://%s/%s", info.Name, files, roundedMB(bytes), u.Bucket, path.Join(u.Prefix, info.Name))
	log.Successf("container=%q backup=%q files=%d", container, info.Name, files)

	return model.CommandResult{Success: true, Message: msg}
}

func (u *S3Uploader) put(ctx context.Context, key, file string) (int64, error) {
	fd, err := os.Open(file)
	if err != nil {
		return 0, err
	}
	defer fd.Close()

	st, err := fd.Stat()
	if err != nil {
		return 0, err
	}

	_, err = u.Client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:        aws.String(u.Bucket),
		Key:           aws.String(key),
		Body:          fd,
		ContentLength: aws.Int64(st.Size()),
	})
	if err != nil {
		return 0, fmt.Errorf("put %s: %w", key, err)
	}

	return st.Size(), nil
}
