package fs

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/aws/session"
	"github.com/aws/aws-sdk-go/service/s3"
)

// S3Filesystem is the Filesystem implementation backing a real AWS
// account. Uploads are namespaced under sessionPrefix so that multiple
// worldstream sessions sharing one stage's static bucket don't overwrite
// each other's snapshots.
type S3Filesystem struct {
	svc           *s3.S3
	staticBucket  string
	sessionPrefix string
}

func NewS3Filesystem(sess *session.Session, stage, sessionName string) (*S3Filesystem, error) {
	return &S3Filesystem{
		svc:           s3.New(sess),
		staticBucket:  "worldstream-" + stage + "-static",
		sessionPrefix: sessionName + "/",
	}, nil
}

var s3ContentTypes = map[string]string{
	".json": "application/json",
	".png":  "image/png",
}

func (f *S3Filesystem) UploadStaticFile(filename string, secondsCache int, data []byte) error {
	var contentType *string
	for ext, mime := range s3ContentTypes {
		if strings.HasSuffix(filename, ext) {
			mime := mime
			contentType = &mime
			break
		}
	}

	req, _ := f.svc.PutObjectRequest(&s3.PutObjectInput{
		Bucket:       aws.String(f.staticBucket),
		Key:          aws.String(f.sessionPrefix + filename),
		Body:         bytes.NewReader(data),
		CacheControl: aws.String(fmt.Sprintf("no-transform, public, max-age=%d", secondsCache)),
		ContentType:  contentType,
	})
	return req.Send()
}
