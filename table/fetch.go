package table

import (
	"context"
	"net/url"
	"os"
	"path/filepath"

	"github.com/hashicorp/go-getter"
	"go.uber.org/zap"

	"github.com/teranos/mqbuild/errors"
	"github.com/teranos/mqbuild/logger"
)

// Fetch downloads a table from src into dir and returns the local file path.
// src is anything go-getter understands: local paths, https URLs, git and S3
// sources. Local sources are returned as-is without copying.
func Fetch(ctx context.Context, src, dir string, log *zap.SugaredLogger) (string, error) {
	log = logger.OrNop(log)

	pwd, err := os.Getwd()
	if err != nil {
		pwd = "."
	}
	detected, err := getter.Detect(src, pwd, getter.Detectors)
	if err != nil {
		return "", errors.Wrapf(err, "detect table source %q", src)
	}
	u, err := url.Parse(detected)
	if err != nil {
		return "", errors.Wrapf(err, "parse table source %q", detected)
	}
	if u.Scheme == "file" || u.Scheme == "" {
		path := src
		if u.Scheme == "file" {
			path = u.Path
		}
		if _, err := os.Stat(path); err != nil {
			return "", errors.Wrapf(err, "table %s", path)
		}
		return path, nil
	}

	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", errors.Wrapf(err, "create table cache %s", dir)
	}
	dst := filepath.Join(dir, "mqbuild-table.toml")

	log.Infow("Fetching table", logger.FieldSource, detected, logger.FieldPath, dst)
	client := &getter.Client{
		Ctx:     ctx,
		Src:     detected,
		Dst:     dst,
		Mode:    getter.ClientModeFile,
		Getters: getter.Getters,
	}
	if err := client.Get(); err != nil {
		return "", errors.WithHint(
			errors.Wrapf(err, "fetch table %s", src),
			"check the table source URL or use a local path")
	}
	return dst, nil
}
