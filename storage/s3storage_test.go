package storage

import (
	"errors"
	"io"
	"sort"
	"strings"
	"testing"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/aws/awserr"
	"github.com/aws/aws-sdk-go/aws/request"
	"github.com/aws/aws-sdk-go/service/s3"
	"github.com/aws/aws-sdk-go/service/s3/s3iface"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeS3 keeps objects in memory and implements the calls S3Storage makes
type fakeS3 struct {
	s3iface.S3API
	objects  map[string]string
	metadata map[string]map[string]*string
	prefix   *string
	failPut  string
}

func newFakeS3() *fakeS3 {
	return &fakeS3{objects: map[string]string{}, metadata: map[string]map[string]*string{}}
}

func (f *fakeS3) GetBucketWebsite(*s3.GetBucketWebsiteInput) (*s3.GetBucketWebsiteOutput, error) {
	if f.prefix == nil {
		return nil, awserr.New("NoSuchWebsiteConfiguration", "no website", nil)
	}
	return &s3.GetBucketWebsiteOutput{RoutingRules: []*s3.RoutingRule{
		{Condition: &s3.Condition{KeyPrefixEquals: f.prefix}},
	}}, nil
}

func (f *fakeS3) PutBucketWebsite(input *s3.PutBucketWebsiteInput) (*s3.PutBucketWebsiteOutput, error) {
	f.prefix = input.WebsiteConfiguration.RoutingRules[0].Condition.KeyPrefixEquals
	return &s3.PutBucketWebsiteOutput{}, nil
}

func (f *fakeS3) PutObject(input *s3.PutObjectInput) (*s3.PutObjectOutput, error) {
	if *input.Key == f.failPut {
		return nil, errors.New("connection reset")
	}
	body, err := io.ReadAll(input.Body)
	if err != nil {
		return nil, err
	}
	f.objects[*input.Key] = string(body)
	f.metadata[*input.Key] = input.Metadata
	return &s3.PutObjectOutput{}, nil
}

func (f *fakeS3) ListObjectsV2(input *s3.ListObjectsV2Input) (*s3.ListObjectsV2Output, error) {
	var keys []string
	for k := range f.objects {
		if strings.HasPrefix(k, *input.Prefix) {
			keys = append(keys, k)
		}
	}
	sort.Strings(keys)
	if input.MaxKeys != nil && int64(len(keys)) > *input.MaxKeys {
		keys = keys[:*input.MaxKeys]
	}
	out := &s3.ListObjectsV2Output{}
	for _, k := range keys {
		out.Contents = append(out.Contents, &s3.Object{Key: aws.String(k)})
	}
	return out, nil
}

func (f *fakeS3) DeleteObjectsWithContext(_ aws.Context, input *s3.DeleteObjectsInput, _ ...request.Option) (*s3.DeleteObjectsOutput, error) {
	for _, o := range input.Delete.Objects {
		delete(f.objects, *o.Key)
	}
	return &s3.DeleteObjectsOutput{}, nil
}

func (f *fakeS3) keys() []string {
	var keys []string
	for k := range f.objects {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

func TestS3StorageCommitSwitchesPrefix(t *testing.T) {
	svc := newFakeS3()

	s, err := newS3Storage("us-east-1", "lcdconf", svc)
	require.NoError(t, err)
	require.NoError(t, s.Put("/sw/lcdproc/lcdvc/#0/current/lcdvc/port", "13666"))
	require.NoError(t, s.PutMeta("/sw/lcdproc/lcdvc/#0/current/lcdvc/list", "array", "#0"))
	require.NoError(t, s.Put("/sw/lcdproc/lcdvc/#0/current/lcdvc/list/#0", "x"))
	require.NoError(t, s.Commit())

	assert.EqualValues(t, "a/", *svc.prefix)
	assert.EqualValues(t, []string{
		"a/sw/lcdproc/lcdvc/#0/current/lcdvc/list",
		"a/sw/lcdproc/lcdvc/#0/current/lcdvc/list/#0",
		"a/sw/lcdproc/lcdvc/#0/current/lcdvc/port",
	}, svc.keys())
	assert.EqualValues(t, "13666", svc.objects["a/sw/lcdproc/lcdvc/#0/current/lcdvc/port"])
	assert.EqualValues(t, "#0", *svc.metadata["a/sw/lcdproc/lcdvc/#0/current/lcdvc/list"]["array"])

	// a second run replaces the first one
	s, err = newS3Storage("us-east-1", "lcdconf", svc)
	require.NoError(t, err)
	require.NoError(t, s.Put("/sw/lcdproc/lcdvc/#0/current/lcdvc/port", "13667"))
	require.NoError(t, s.Commit())

	assert.EqualValues(t, "b/", *svc.prefix)
	assert.EqualValues(t, []string{"b/sw/lcdproc/lcdvc/#0/current/lcdvc/port"}, svc.keys())
}

func TestS3StorageFailedCommitIsDiscarded(t *testing.T) {
	svc := newFakeS3()
	svc.failPut = "a/two"

	s, err := newS3Storage("eu-west-1", "lcdconf", svc)
	require.NoError(t, err)
	require.NoError(t, s.Put("one", "1"))
	require.NoError(t, s.Put("two", "2"))
	assert.Error(t, s.Commit())
	assert.Nil(t, svc.prefix, "the current prefix is left alone")
	assert.EqualValues(t, []string{"a/one"}, svc.keys())

	_, err = newS3Storage("eu-west-1", "lcdconf", svc)
	assert.True(t, errors.Is(err, ErrStagingNotEmpty))

	require.NoError(t, s.Discard())
	assert.Empty(t, svc.keys())
	_, err = newS3Storage("eu-west-1", "lcdconf", svc)
	assert.NoError(t, err)
}
