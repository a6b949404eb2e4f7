package mock

import (
	"bytes"
	"errors"
	"io/ioutil"
	"sort"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/service/s3"

	"aqueduct/internal/adaptor"
)

type s3Entry struct {
	data     []byte
	modified time.Time
}

// S3Client is on memory adaptor.S3Client mock
type S3Client struct {
	data map[string]map[string]*s3Entry
	// clock advances one second per PutObject so LastModified ordering is
	// deterministic in tests
	clock time.Time
}

// NewS3Store creates an isolated in-memory store and a factory bound to it.
func NewS3Store() (*S3Client, adaptor.S3ClientFactory) {
	client := &S3Client{
		data:  map[string]map[string]*s3Entry{},
		clock: time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC),
	}
	return client, func(region string) adaptor.S3Client { return client }
}

// Seed stores an object directly, for arranging test fixtures.
func (x *S3Client) Seed(bucket, key string, data []byte) {
	x.put(bucket, key, data)
}

// Keys returns all object keys of a bucket, sorted.
func (x *S3Client) Keys(bucket string) []string {
	var keys []string
	for key := range x.data[bucket] {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	return keys
}

func (x *S3Client) put(bucket, key string, data []byte) {
	bkt, ok := x.data[bucket]
	if !ok {
		bkt = map[string]*s3Entry{}
		x.data[bucket] = bkt
	}
	x.clock = x.clock.Add(time.Second)
	bkt[key] = &s3Entry{data: data, modified: x.clock}
}

// GetObject of S3Client loads []bytes from memory
func (x *S3Client) GetObject(input *s3.GetObjectInput) (*s3.GetObjectOutput, error) {
	bucket, ok := x.data[*input.Bucket]
	if !ok {
		return nil, errors.New(s3.ErrCodeNoSuchKey)
	}
	obj, ok := bucket[*input.Key]
	if !ok {
		return nil, errors.New(s3.ErrCodeNoSuchKey)
	}

	return &s3.GetObjectOutput{
		Body: ioutil.NopCloser(bytes.NewReader(obj.data)),
	}, nil
}

// PutObject of S3Client saves []bytes to memory
func (x *S3Client) PutObject(input *s3.PutObjectInput) (*s3.PutObjectOutput, error) {
	raw, err := ioutil.ReadAll(input.Body)
	if err != nil {
		return nil, err
	}

	x.put(*input.Bucket, *input.Key, raw)
	return &s3.PutObjectOutput{}, nil
}

// ListObjectsV2 of S3Client lists keys under a prefix in key order
func (x *S3Client) ListObjectsV2(input *s3.ListObjectsV2Input) (*s3.ListObjectsV2Output, error) {
	output := &s3.ListObjectsV2Output{}

	bucket, ok := x.data[*input.Bucket]
	if !ok {
		return output, nil
	}

	prefix := ""
	if input.Prefix != nil {
		prefix = *input.Prefix
	}

	for _, key := range x.Keys(*input.Bucket) {
		if !strings.HasPrefix(key, prefix) {
			continue
		}
		entry := bucket[key]
		output.Contents = append(output.Contents, &s3.Object{
			Key:          aws.String(key),
			Size:         aws.Int64(int64(len(entry.data))),
			LastModified: aws.Time(entry.modified),
		})
	}

	return output, nil
}

// DeleteObjects of S3Client removes []bytes from memory
func (x *S3Client) DeleteObjects(input *s3.DeleteObjectsInput) (*s3.DeleteObjectsOutput, error) {
	bucket, ok := x.data[*input.Bucket]
	if !ok {
		return nil, errors.New(s3.ErrCodeNoSuchKey)
	}

	for _, obj := range input.Delete.Objects {
		if _, ok := bucket[*obj.Key]; !ok {
			return nil, errors.New(s3.ErrCodeNoSuchKey)
		}
		delete(bucket, *obj.Key)
	}

	return &s3.DeleteObjectsOutput{}, nil
}
