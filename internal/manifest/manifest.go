package manifest

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"k8s.io/apimachinery/pkg/apis/meta/v1/unstructured"
	"k8s.io/apimachinery/pkg/util/yaml"

	"github.com/imamik/hkube/internal/util/retry"
)

// maxManifestSize bounds a single download.
const maxManifestSize = 16 << 20

// ObjectRef identifies one object in a manifest.
type ObjectRef struct {
	APIVersion string
	Kind       string
	Namespace  string
	Name       string
}

func (o ObjectRef) String() string {
	if o.Namespace != "" {
		return fmt.Sprintf("%s %s/%s", o.Kind, o.Namespace, o.Name)
	}
	return fmt.Sprintf("%s %s", o.Kind, o.Name)
}

// Manifest is a validated multi-document YAML file.
type Manifest struct {
	Name    string
	URL     string
	Data    []byte
	Objects []ObjectRef
}

// Fetcher downloads manifests with retry.
type Fetcher struct {
	client       *http.Client
	timeout      time.Duration
	maxRetries   int
	initialDelay time.Duration
}

// Option configures a Fetcher.
type Option func(*Fetcher)

// WithHTTPClient sets the HTTP client used for downloads.
func WithHTTPClient(c *http.Client) Option {
	return func(f *Fetcher) { f.client = c }
}

// WithTimeout bounds each download attempt.
func WithTimeout(d time.Duration) Option {
	return func(f *Fetcher) { f.timeout = d }
}

// WithRetry sets retry attempts and the initial backoff delay.
func WithRetry(maxRetries int, initialDelay time.Duration) Option {
	return func(f *Fetcher) {
		f.maxRetries = maxRetries
		f.initialDelay = initialDelay
	}
}

// NewFetcher creates a Fetcher.
func NewFetcher(opts ...Option) *Fetcher {
	f := &Fetcher{
		client:       http.DefaultClient,
		timeout:      30 * time.Second,
		maxRetries:   3,
		initialDelay: time.Second,
	}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

// Fetch downloads url and validates its content. Server errors and network
// failures are retried; client errors and invalid content are not.
func (f *Fetcher) Fetch(ctx context.Context, name, url string) (*Manifest, error) {
	var data []byte
	err := retry.WithExponentialBackoff(ctx, func() error {
		body, err := f.get(ctx, url)
		if err != nil {
			return err
		}
		data = body
		return nil
	}, retry.WithMaxRetries(f.maxRetries), retry.WithInitialDelay(f.initialDelay))
	if err != nil {
		return nil, fmt.Errorf("failed to fetch manifest %s from %s: %w", name, url, err)
	}

	objects, err := Validate(data)
	if err != nil {
		return nil, fmt.Errorf("manifest %s from %s is invalid: %w", name, url, err)
	}

	return &Manifest{Name: name, URL: url, Data: data, Objects: objects}, nil
}

func (f *Fetcher) get(ctx context.Context, url string) ([]byte, error) {
	ctx, cancel := context.WithTimeout(ctx, f.timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, retry.Fatal(err)
	}
	resp, err := f.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		err := fmt.Errorf("unexpected status %s", resp.Status)
		if resp.StatusCode >= 400 && resp.StatusCode < 500 && resp.StatusCode != http.StatusTooManyRequests {
			return nil, retry.Fatal(err)
		}
		return nil, err
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxManifestSize+1))
	if err != nil {
		return nil, err
	}
	if len(body) > maxManifestSize {
		return nil, retry.Fatal(fmt.Errorf("manifest exceeds %d bytes", maxManifestSize))
	}
	return body, nil
}

// Validate decodes every YAML document in data and requires each non-empty
// one to carry apiVersion, kind and metadata.name. List kinds are checked
// item by item.
func Validate(data []byte) ([]ObjectRef, error) {
	decoder := yaml.NewYAMLOrJSONDecoder(bytes.NewReader(data), 4096)

	var refs []ObjectRef
	for doc := 0; ; doc++ {
		var obj unstructured.Unstructured
		if err := decoder.Decode(&obj.Object); err != nil {
			if errors.Is(err, io.EOF) {
				break
			}
			return nil, fmt.Errorf("document %d: %w", doc, err)
		}
		if len(obj.Object) == 0 {
			continue
		}

		if obj.IsList() {
			list, err := obj.ToList()
			if err != nil {
				return nil, fmt.Errorf("document %d: %w", doc, err)
			}
			for i := range list.Items {
				ref, err := objectRef(&list.Items[i])
				if err != nil {
					return nil, fmt.Errorf("document %d item %d: %w", doc, i, err)
				}
				refs = append(refs, ref)
			}
			continue
		}

		ref, err := objectRef(&obj)
		if err != nil {
			return nil, fmt.Errorf("document %d: %w", doc, err)
		}
		refs = append(refs, ref)
	}

	if len(refs) == 0 {
		return nil, fmt.Errorf("no Kubernetes objects found")
	}
	return refs, nil
}

func objectRef(obj *unstructured.Unstructured) (ObjectRef, error) {
	ref := ObjectRef{
		APIVersion: obj.GetAPIVersion(),
		Kind:       obj.GetKind(),
		Namespace:  obj.GetNamespace(),
		Name:       obj.GetName(),
	}
	switch {
	case ref.APIVersion == "":
		return ref, fmt.Errorf("object has no apiVersion")
	case ref.Kind == "":
		return ref, fmt.Errorf("object has no kind")
	case ref.Name == "":
		return ref, fmt.Errorf("%s has no metadata.name", ref.Kind)
	}
	return ref, nil
}
