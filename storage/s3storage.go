package storage

import (
	"errors"
	"fmt"
	"strings"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/aws/awserr"
	"github.com/aws/aws-sdk-go/aws/credentials"
	"github.com/aws/aws-sdk-go/aws/session"
	"github.com/aws/aws-sdk-go/service/s3"
	"github.com/aws/aws-sdk-go/service/s3/s3iface"
	"github.com/aws/aws-sdk-go/service/s3/s3manager"
	"github.com/charmbracelet/log"
)

// S3Storage stores every key as an object of an Amazon S3 bucket.
//
// Keys live under one of two prefixes, "a/" and "b/". The bucket website
// routing rule names the current one; a run uploads to the other prefix and
// Commit switches the rule over, then empties the old prefix.
type S3Storage struct {
	region  string
	bucket  string
	prefix  string
	svc     s3iface.S3API
	objects []s3Object
	index   map[string]int
}

type s3Object struct {
	key   string
	value string
	meta  map[string]*string
}

// NewS3Storage returns a new Storage backed by an S3 bucket
func NewS3Storage(accessKeyID string, secretAccessKey string, region string, bucket string) (*S3Storage, error) {
	creds := credentials.NewStaticCredentials(accessKeyID, secretAccessKey, "")
	config := aws.NewConfig().WithRegion(region).WithCredentials(creds)
	sess, err := session.NewSession(config)
	if err != nil {
		return nil, err
	}
	svc := s3.New(sess)

	if err = configureBucket(region, bucket, svc); err != nil {
		return nil, err
	}
	return newS3Storage(region, bucket, svc)
}

func newS3Storage(region string, bucket string, svc s3iface.S3API) (*S3Storage, error) {
	prefix, err := getCurrentPrefix(bucket, svc)
	if err != nil {
		return nil, err
	}

	s := &S3Storage{region: region, bucket: bucket, prefix: prefix, svc: svc, index: map[string]int{}}
	staged, err := svc.ListObjectsV2(&s3.ListObjectsV2Input{
		Bucket:  aws.String(bucket),
		Prefix:  aws.String(s.newPrefix()),
		MaxKeys: aws.Int64(1),
	})
	if err != nil {
		return nil, err
	}
	if len(staged.Contents) > 0 {
		return nil, fmt.Errorf("s3://%s/%s: %w", bucket, s.newPrefix(), ErrStagingNotEmpty)
	}
	return s, nil
}

func configureBucket(region string, bucket string, svc s3iface.S3API) error {
	input := &s3.CreateBucketInput{
		Bucket: aws.String(bucket),
		CreateBucketConfiguration: &s3.CreateBucketConfiguration{
			LocationConstraint: aws.String(region),
		},
	}
	// HACK: https://docs.aws.amazon.com/AmazonS3/latest/API/RESTBucketPUT.html#RESTBucketPUT-requests-request-elements
	if region == "us-east-1" {
		input.CreateBucketConfiguration = nil
	}
	_, err := svc.CreateBucket(input)
	if err != nil {
		if aerr, ok := err.(awserr.Error); ok {
			switch aerr.Code() {
			case s3.ErrCodeBucketAlreadyExists:
				return errors.New("bucket name already taken by another AWS user, please use a different name")
			case s3.ErrCodeBucketAlreadyOwnedByYou:
				return nil
			default:
				return err
			}
		}
		return err
	}
	log.Info("Bucket created", "bucket", bucket)
	return nil
}

func getCurrentPrefix(bucket string, svc s3iface.S3API) (result string, err error) {
	website, err := svc.GetBucketWebsite(&s3.GetBucketWebsiteInput{Bucket: aws.String(bucket)})
	if err != nil {
		if aerr, ok := err.(awserr.Error); ok {
			switch aerr.Code() {
			case "NoSuchWebsiteConfiguration":
				return "", nil
			}
		}
		return
	}

	if len(website.RoutingRules) != 1 {
		return
	}

	condition := website.RoutingRules[0].Condition
	if condition == nil {
		return
	}

	prefix := condition.KeyPrefixEquals
	if prefix == nil {
		return
	}

	result = *prefix
	return
}

func configureWebsite(bucket string, prefix string, svc s3iface.S3API) (err error) {
	input := &s3.PutBucketWebsiteInput{
		Bucket: aws.String(bucket),
		WebsiteConfiguration: &s3.WebsiteConfiguration{
			IndexDocument: &s3.IndexDocument{
				Suffix: aws.String("index.html"),
			},
			RoutingRules: []*s3.RoutingRule{
				{
					Condition: &s3.Condition{
						KeyPrefixEquals: aws.String(prefix),
					},
					Redirect: &s3.Redirect{
						ReplaceKeyPrefixWith: aws.String(""),
					},
				},
			},
		},
	}
	_, err = svc.PutBucketWebsite(input)
	return
}

func (s *S3Storage) newPrefix() string {
	if s.prefix == "a/" {
		return "b/"
	}
	return "a/"
}

func (s *S3Storage) object(key string) *s3Object {
	i, ok := s.index[key]
	if !ok {
		i = len(s.objects)
		s.index[key] = i
		s.objects = append(s.objects, s3Object{key: key, meta: map[string]*string{}})
	}
	return &s.objects[i]
}

// Put stages value at key
func (s *S3Storage) Put(key string, value string) error {
	s.object(key).value = value
	return nil
}

// PutMeta stages a metadata entry, uploaded as user metadata of the key's object
func (s *S3Storage) PutMeta(key string, meta string, value string) error {
	s.object(key).meta[meta] = aws.String(value)
	return nil
}

func (s *S3Storage) objectKey(prefix string, key string) string {
	return prefix + strings.TrimPrefix(key, "/")
}

// Commit uploads staged keys under the new prefix and switches over to it
func (s *S3Storage) Commit() (err error) {
	newPrefix := s.newPrefix()
	for _, o := range s.objects {
		_, err = s.svc.PutObject(&s3.PutObjectInput{
			Bucket:   aws.String(s.bucket),
			Key:      aws.String(s.objectKey(newPrefix, o.key)),
			Body:     strings.NewReader(o.value),
			Metadata: o.meta,
		})
		if err != nil {
			return fmt.Errorf("upload %q: %w", o.key, err)
		}
	}

	err = configureWebsite(s.bucket, newPrefix, s.svc)
	if err != nil {
		return
	}
	oldPrefix := s.prefix
	s.prefix = newPrefix
	log.Info("Bucket switched", "bucket", s.bucket, "prefix", newPrefix, "keys", len(s.objects))
	s.objects = nil
	s.index = map[string]int{}

	if oldPrefix == "" {
		return nil
	}
	return s.deletePrefix(oldPrefix)
}

// Discard drops staged keys and removes whatever a failed Commit uploaded
func (s *S3Storage) Discard() error {
	s.objects = nil
	s.index = map[string]int{}
	return s.deletePrefix(s.newPrefix())
}

func (s *S3Storage) deletePrefix(prefix string) error {
	batcher := s3manager.NewBatchDeleteWithClient(s.svc)
	objectsToDelete := true
	for objectsToDelete {
		input := &s3.ListObjectsV2Input{
			Bucket: aws.String(s.bucket),
			Prefix: aws.String(prefix),
		}

		objects, err := s.svc.ListObjectsV2(input)
		if err != nil {
			return err
		}

		if len(objects.Contents) > 0 {
			toDelete := []s3manager.BatchDeleteObject{}
			for _, o := range objects.Contents {
				toDelete = append(toDelete, s3manager.BatchDeleteObject{Object: &s3.DeleteObjectInput{
					Key:    o.Key,
					Bucket: aws.String(s.bucket),
				}})
			}

			err := batcher.Delete(aws.BackgroundContext(), &s3manager.DeleteObjectsIterator{
				Objects: toDelete,
			})
			if err != nil {
				return err
			}
		} else {
			objectsToDelete = false
		}
	}
	return nil
}
