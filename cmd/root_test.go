package cmd

import (
	"os"
	"path"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/uyuni-project/lcdconf/alerts"
	"github.com/uyuni-project/lcdconf/storage"
)

const (
	testdataDir           = "testdata"
	invalidStoragefile    = "invalid_storage.yaml"
	validFileFile         = "valid_file.yaml"
	validS3File           = "valid_s3.yaml"
	s3MissingBucketFile   = "s3_missing_bucket.yaml"
	validBadgerFile       = "valid_badger.yaml"
	badgerWithoutPathFile = "badger_without_path.yaml"
	emptyFile             = "empty.yaml"
	lcdvcConf             = "lcdvc.conf"
	lcdexecConf           = "lcdexec.conf"
)

func TestParseConfig(t *testing.T) {
	tests := []struct {
		name      string
		inputFile string
		want      Config
		wantErr   bool
	}{
		{
			"Valid file storage", validFileFile,
			Config{
				Storage: storage.StorageConfig{
					Type: "file",
					Path: "/var/lib/lcdconf/lcdexec.ini",
				},
			},
			false,
		},
		{
			"Valid S3 storage", validS3File,
			Config{
				Storage: storage.StorageConfig{
					Type:            "s3",
					Root:            "/sw/lcdproc/lcdproc/#0/current",
					AccessKeyID:     "ACCESS_KEY_ID",
					SecretAccessKey: "SECRET_ACCESS_KEY",
					Region:          "us-east-1",
					Bucket:          "lcdconf-bucket",
				},
			},
			false,
		},
		{
			"Valid badger storage with alerts", validBadgerFile,
			Config{
				Storage: storage.StorageConfig{
					Type: "badger",
					Path: "/var/lib/lcdconf/db",
				},
				Alerts: alerts.AlertsConfig{
					FailOnError: true,
					Gmail: alerts.MailerConfig{
						Account:    "lcdconf@example.com",
						Recipients: []string{"ops@example.com"},
					},
					Grafana: alerts.GrafanaConfig{
						Enabled:    true,
						AlertTitle: "lcdconf",
						APIUrl:     "https://grafana.example.com/api/",
						APIKey:     "API_KEY",
					},
				},
			},
			false,
		},
		{
			"Defaults", emptyFile,
			Config{
				Storage: storage.StorageConfig{
					Type: "file",
				},
			},
			false,
		},
		{
			"S3 storage without bucket", s3MissingBucketFile,
			Config{
				Storage: storage.StorageConfig{
					Type:            "s3",
					AccessKeyID:     "ACCESS_KEY_ID",
					SecretAccessKey: "SECRET_ACCESS_KEY",
					Region:          "us-east-1",
				},
			},
			true,
		},
		{
			"Badger storage without path", badgerWithoutPathFile,
			Config{
				Storage: storage.StorageConfig{
					Type: "badger",
				},
			},
			true,
		},
		{
			"Invalid storage", invalidStoragefile,
			Config{
				Storage: storage.StorageConfig{
					Type: "memory",
					Path: "/var/lib/lcdconf",
				},
			},
			true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			filePath := path.Join(testdataDir, tt.inputFile)
			bytes, err := os.ReadFile(filePath)
			if err != nil {
				t.Fatal()
			}
			configString := string(bytes)

			got, err := parseConfig(configString)
			assert.EqualValues(t, tt.wantErr, (err != nil))
			if !assert.ObjectsAreEqualValues(tt.want, got) {
				t.Errorf("Expected %v - got %v", tt.want, got)
			}
		})
	}
}

func TestParseConfigEnvOverrides(t *testing.T) {
	t.Setenv("LCDCONF_BUCKET", "lcdconf-bucket")
	t.Setenv("LCDCONF_REGION", "eu-central-1")

	bytes, err := os.ReadFile(path.Join(testdataDir, s3MissingBucketFile))
	if err != nil {
		t.Fatal()
	}
	got, err := parseConfig(string(bytes))
	assert.NoError(t, err)
	assert.EqualValues(t, "lcdconf-bucket", got.Storage.Bucket)
	assert.EqualValues(t, "eu-central-1", got.Storage.Region)
	assert.EqualValues(t, "ACCESS_KEY_ID", got.Storage.AccessKeyID)
}

func TestInitConfig(t *testing.T) {
	defer func(f string) { cfgFile = f }(cfgFile)

	t.Run("From environment", func(t *testing.T) {
		t.Setenv("LCDCONF_CONFIG", "storage:\n  type: file\n")
		cfgFile = "does-not-exist.yaml"
		assert.NoError(t, initConfig())
		assert.EqualValues(t, "storage:\n  type: file\n", cfgString)
	})
	t.Run("From file", func(t *testing.T) {
		cfgFile = path.Join(testdataDir, validFileFile)
		assert.NoError(t, initConfig())
		assert.Contains(t, cfgString, "/var/lib/lcdconf/lcdexec.ini")
	})
	t.Run("Missing default file", func(t *testing.T) {
		wd, err := os.Getwd()
		if err != nil {
			t.Fatal(err)
		}
		if err := os.Chdir(t.TempDir()); err != nil {
			t.Fatal(err)
		}
		t.Cleanup(func() { _ = os.Chdir(wd) })
		cfgFile = defaultConfigFile
		assert.NoError(t, initConfig())
		assert.Empty(t, cfgString)
	})
	t.Run("Missing explicit file", func(t *testing.T) {
		cfgFile = "does-not-exist.yaml"
		assert.Error(t, initConfig())
	})
}
