package publish

import (
	"context"
	"fmt"
	"strings"
)

type fakeIdentity struct {
	account string
	err     error
	calls   int
}

func (f *fakeIdentity) AccountID(context.Context) (string, error) {
	f.calls++
	return f.account, f.err
}

// fakeRegistry is an in-memory registry control plane that records calls.
type fakeRegistry struct {
	repos map[string]*Repository

	describeErr error
	createErr   error
	policyErr   error
	credErr     error
	cred        Credential

	calls    []string
	creates  []RepositorySpec
	policies map[string][]LifecyclePolicy
}

func newFakeRegistry() *fakeRegistry {
	return &fakeRegistry{
		repos:    make(map[string]*Repository),
		policies: make(map[string][]LifecyclePolicy),
		cred:     Credential{Username: "AWS", Password: "token", Endpoint: "https://123456789012.dkr.ecr.us-east-1.amazonaws.com"},
	}
}

func (f *fakeRegistry) DescribeRepository(_ context.Context, name string) (*Repository, error) {
	f.calls = append(f.calls, "describe:"+name)
	if f.describeErr != nil {
		return nil, f.describeErr
	}
	repo, ok := f.repos[name]
	if !ok {
		return nil, nil
	}
	out := *repo
	return &out, nil
}

func (f *fakeRegistry) CreateRepository(_ context.Context, spec RepositorySpec) (*Repository, error) {
	f.calls = append(f.calls, "create:"+spec.Name)
	f.creates = append(f.creates, spec)
	if f.createErr != nil {
		return nil, f.createErr
	}
	if _, ok := f.repos[spec.Name]; ok {
		return nil, fmt.Errorf("create %s: %w", spec.Name, ErrRepositoryExists)
	}
	repo := &Repository{
		Name:           spec.Name,
		URI:            "123456789012.dkr.ecr.us-east-1.amazonaws.com/" + spec.Name,
		ScanOnPush:     spec.ScanOnPush,
		EncryptionType: spec.EncryptionType,
	}
	f.repos[spec.Name] = repo
	out := *repo
	return &out, nil
}

func (f *fakeRegistry) PutLifecyclePolicy(_ context.Context, repository string, policy LifecyclePolicy) error {
	f.calls = append(f.calls, "policy:"+repository)
	if f.policyErr != nil {
		return f.policyErr
	}
	f.policies[repository] = append(f.policies[repository], policy)
	return nil
}

func (f *fakeRegistry) LoginCredential(context.Context) (Credential, error) {
	f.calls = append(f.calls, "credential")
	if f.credErr != nil {
		return Credential{}, f.credErr
	}
	return f.cred, nil
}

func (f *fakeRegistry) count(prefix string) int {
	n := 0
	for _, c := range f.calls {
		if strings.HasPrefix(c, prefix) {
			n++
		}
	}
	return n
}

// fakeImages simulates a local image store and a remote registry.
type fakeImages struct {
	loginErr error
	buildErr error
	tagErr   error
	pushErrs []error // consumed one per Push call

	calls  []string
	local  map[string]string // reference -> image id
	remote map[string]string
	logins map[string]Credential
	builds []BuildRequest
}

func newFakeImages() *fakeImages {
	return &fakeImages{
		local:  make(map[string]string),
		remote: make(map[string]string),
		logins: make(map[string]Credential),
	}
}

func (f *fakeImages) Login(_ context.Context, registry string, cred Credential) error {
	f.calls = append(f.calls, "login "+registry)
	if f.loginErr != nil {
		return f.loginErr
	}
	f.logins[registry] = cred
	return nil
}

func (f *fakeImages) Build(_ context.Context, req BuildRequest) error {
	f.calls = append(f.calls, "build "+req.Reference)
	f.builds = append(f.builds, req)
	if f.buildErr != nil {
		return f.buildErr
	}
	f.local[req.Reference] = fmt.Sprintf("sha256:%d", len(f.builds))
	return nil
}

func (f *fakeImages) Tag(_ context.Context, source, target string) error {
	f.calls = append(f.calls, "tag "+source+" "+target)
	if f.tagErr != nil {
		return f.tagErr
	}
	id, ok := f.local[source]
	if !ok {
		return fmt.Errorf("no such image: %s", source)
	}
	f.local[target] = id
	return nil
}

func (f *fakeImages) Push(_ context.Context, ref string) error {
	f.calls = append(f.calls, "push "+ref)
	if len(f.pushErrs) > 0 {
		err := f.pushErrs[0]
		f.pushErrs = f.pushErrs[1:]
		if err != nil {
			return err
		}
	}
	id, ok := f.local[ref]
	if !ok {
		return fmt.Errorf("no such image: %s", ref)
	}
	f.remote[ref] = id
	return nil
}

type recordingReporter struct {
	lines []string
}

func (r *recordingReporter) Step(msg string)    { r.lines = append(r.lines, "step: "+msg) }
func (r *recordingReporter) Success(msg string) { r.lines = append(r.lines, "ok: "+msg) }
func (r *recordingReporter) Error(msg string)   { r.lines = append(r.lines, "error: "+msg) }

func (r *recordingReporter) last() string {
	if len(r.lines) == 0 {
		return ""
	}
	return r.lines[len(r.lines)-1]
}
