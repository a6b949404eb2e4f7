package service

import (
	"bytes"
	"io"
	"io/ioutil"
	"os"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/service/s3"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"

	"aqueduct/internal/adaptor"
	"aqueduct/pkg/models"
)

const (
	// DeleteObjects can have a list of up to 1000 keys
	// https://docs.aws.amazon.com/AmazonS3/latest/API/API_DeleteObjects.html
	maxNumberOfS3DeletableObject = 1000

	s3DownloadBufferSize = 2 * 1024 * 1024 // 2MB
)

// S3Service is accessor to the object store
type S3Service struct {
	newS3 adaptor.S3ClientFactory
}

// NewS3Service is constructor of S3Service
func NewS3Service(newS3 adaptor.S3ClientFactory) *S3Service {
	return &S3Service{
		newS3: newS3,
	}
}

// ObjectInfo is one listing entry.
type ObjectInfo struct {
	Object       models.S3Object
	Size         int64
	LastModified int64
}

// ListObjects lists object keys under a prefix, in listing order.
func (x *S3Service) ListObjects(bucket models.S3Object, prefix string) ([]ObjectInfo, error) {
	client := x.newS3(bucket.Region)

	var objects []ObjectInfo
	input := &s3.ListObjectsV2Input{
		Bucket: aws.String(bucket.Bucket),
		Prefix: aws.String(prefix),
	}

	for {
		output, err := client.ListObjectsV2(input)
		if err != nil {
			return nil, errors.Wrapf(err, "Fail to list objects: %s/%s", bucket.Bucket, prefix)
		}

		for _, obj := range output.Contents {
			info := ObjectInfo{
				Object: models.NewS3Object(bucket.Region, bucket.Bucket, aws.StringValue(obj.Key)),
				Size:   aws.Int64Value(obj.Size),
			}
			if obj.LastModified != nil {
				info.LastModified = obj.LastModified.Unix()
			}
			objects = append(objects, info)
		}

		if !aws.BoolValue(output.IsTruncated) {
			break
		}
		input.ContinuationToken = output.NextContinuationToken
	}

	return objects, nil
}

// GetObject downloads a whole object into memory.
func (x *S3Service) GetObject(obj models.S3Object) ([]byte, error) {
	client := x.newS3(obj.Region)
	resp, err := client.GetObject(&s3.GetObjectInput{
		Bucket: aws.String(obj.Bucket),
		Key:    aws.String(obj.Key),
	})
	if err != nil {
		return nil, errors.Wrapf(err, "Fail to get object: %s", obj.Path())
	}
	defer resp.Body.Close()

	raw, err := ioutil.ReadAll(resp.Body)
	if err != nil {
		return nil, errors.Wrapf(err, "Fail to read object body: %s", obj.Path())
	}

	return raw, nil
}

// PutObject uploads a byte body to the object store.
func (x *S3Service) PutObject(obj models.S3Object, body []byte) error {
	client := x.newS3(obj.Region)
	resp, err := client.PutObject(&s3.PutObjectInput{
		Body:   bytes.NewReader(body),
		Bucket: aws.String(obj.Bucket),
		Key:    aws.String(obj.Key),
	})
	if err != nil {
		return errors.Wrapf(err, "Fail to put object: %s", obj.Path())
	}

	logger.WithFields(logrus.Fields{
		"resp":   resp,
		"bucket": obj.Bucket,
		"key":    obj.Key,
	}).Debug("Uploaded object")

	return nil
}

// UploadFileToS3 uploads a specified local file to the object store
func (x *S3Service) UploadFileToS3(filePath string, dst models.S3Object) error {
	fd, err := os.Open(filePath)
	if err != nil {
		return errors.Wrapf(err, "Fail to open a local file: %s", filePath)
	}
	defer fd.Close()

	client := x.newS3(dst.Region)
	resp, err := client.PutObject(&s3.PutObjectInput{
		Body:   fd,
		Bucket: aws.String(dst.Bucket),
		Key:    aws.String(dst.Key),
	})
	if err != nil {
		return errors.Wrapf(err, "Fail to upload a file: %s", dst.Path())
	}

	logger.WithFields(logrus.Fields{
		"resp":   resp,
		"bucket": dst.Bucket,
		"key":    dst.Key,
	}).Debug("Uploaded a file")

	return nil
}

// DownloadS3Object downloads a remote object to a local temp file and
// returns its path. Caller removes the file.
func (x *S3Service) DownloadS3Object(obj models.S3Object, pattern string) (*string, error) {
	client := x.newS3(obj.Region)
	resp, err := client.GetObject(&s3.GetObjectInput{
		Bucket: aws.String(obj.Bucket),
		Key:    aws.String(obj.Key),
	})
	if err != nil {
		return nil, errors.Wrapf(err, "Fail to download object: %s", obj.Path())
	}
	defer resp.Body.Close()

	fd, err := ioutil.TempFile("", pattern)
	if err != nil {
		return nil, errors.Wrap(err, "Fail to create a temp file")
	}
	defer fd.Close()

	buf := make([]byte, s3DownloadBufferSize)
	readBytes, writeBytes := 0, 0

	for {
		r, rErr := resp.Body.Read(buf)
		readBytes += r

		if r > 0 {
			w, wErr := fd.Write(buf[:r])
			if wErr != nil {
				return nil, errors.Wrap(wErr, "Fail to write a temp file")
			}
			writeBytes += w
		}

		if rErr == io.EOF {
			break
		} else if rErr != nil {
			return nil, errors.Wrapf(rErr, "Fail to read object body: %s", obj.Path())
		}
	}

	fname := fd.Name()

	logger.WithFields(logrus.Fields{
		"write": writeBytes, "read": readBytes,
		"fpath": fname, "srckey": obj.Key,
	}).Trace("Downloaded S3 object")

	return &fname, nil
}

// DeleteS3Objects is wrapper of s3.DeleteObjects
func (x *S3Service) DeleteS3Objects(objects []models.S3Object) error {
	if len(objects) == 0 {
		return nil
	}

	logger.WithField("len(objects)", len(objects)).Debug("Try to delete objects")

	var objectIDs []*s3.ObjectIdentifier
	for i := range objects {
		if objects[i].Bucket != objects[0].Bucket {
			return errors.Errorf("Multiple buckets are not allowed: %s and %s", objects[i].Bucket, objects[0].Bucket)
		}
		objectIDs = append(objectIDs, &s3.ObjectIdentifier{Key: &objects[i].Key})
	}

	client := x.newS3(objects[0].Region)

	for s := 0; s < len(objectIDs); s += maxNumberOfS3DeletableObject {
		end := len(objectIDs)
		if s+maxNumberOfS3DeletableObject < len(objectIDs) {
			end = s + maxNumberOfS3DeletableObject
		}

		input := s3.DeleteObjectsInput{
			Bucket: &objects[0].Bucket,
			Delete: &s3.Delete{
				Objects: objectIDs[s:end],
			},
		}

		if resp, err := client.DeleteObjects(&input); err != nil {
			return errors.Wrapf(err, "Fail to delete objects: %v", resp)
		}
	}

	return nil
}
