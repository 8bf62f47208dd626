// SPDX-License-Identifier: MPL-2.0

package emit

import (
	"errors"
	"slices"
	"testing"

	"github.com/slicebuild/sb/internal/resolve"
	"github.com/slicebuild/sb/pkg/slice"
	"github.com/slicebuild/sb/pkg/version"
)

func mk(name string, from []string, deps []string, run ...string) *slice.Slice {
	secs := []slice.Section{{Kind: slice.KindOS, Items: []string{"debian-8"}}}
	if len(from) > 0 {
		secs = append(secs, slice.Section{Kind: slice.KindFROM, Items: from})
	}
	if len(deps) > 0 {
		secs = append(secs, slice.Section{Kind: slice.KindDEP, Items: deps})
	}
	if len(run) > 0 {
		secs = append(secs, slice.Section{Kind: slice.KindRUN, Items: run})
	}
	return slice.New(name, version.Zero(), name, secs)
}

func resolver(t *testing.T, list ...*slice.Slice) *resolve.Resolver {
	t.Helper()
	r, err := resolve.New(list, resolve.Options{
		OS:               slice.OS{Name: "debian"},
		Policy:           version.ExactOrGreater,
		OSBaseDependency: true,
	})
	if err != nil {
		t.Fatal(err)
	}
	return r
}

func find(t *testing.T, r *resolve.Resolver, name string) resolve.NodeID {
	t.Helper()
	id, ok := r.FindSlice(name, version.Zero(), version.ExactOrGreater)
	if !ok {
		t.Fatalf("%s not found", name)
	}
	return id
}

func TestEmit_Chain(t *testing.T) {
	t.Parallel()

	r := resolver(t,
		mk("jekyll", nil, []string{"ruby"}, "gem install jekyll"),
		mk("ruby", nil, []string{"wget"}, "wget ruby.tgz", "make install"),
		mk("wget", nil, nil, "apt-get install -q -y wget"),
	)

	got, err := Emit(r, []resolve.NodeID{find(t, r, "jekyll")}, Shell{})
	if err != nil {
		t.Fatal(err)
	}
	want := "apt-get install -q -y wget\nwget ruby.tgz\nmake install\ngem install jekyll\n"
	if got != want {
		t.Errorf("Emit() =\n%s\nwant\n%s", got, want)
	}
	if err := ValidateShell(got); err != nil {
		t.Errorf("emitted script does not parse: %v", err)
	}
}

func TestEmit_Docker(t *testing.T) {
	t.Parallel()

	r := resolver(t,
		mk("debian", []string{"debian:jessie"}, nil, "apt-get update -q -y"),
		mk("ruby", []string{"ignored:latest"}, []string{"wget"}, "cd /tmp", "make install"),
		mk("wget", nil, nil, "apt-get install -q -y wget"),
	)

	got, err := Emit(r, []resolve.NodeID{find(t, r, "ruby")}, Docker{})
	if err != nil {
		t.Fatal(err)
	}
	want := "FROM debian:jessie\n\n" +
		"RUN apt-get update -q -y\n" +
		"RUN apt-get install -q -y wget\n" +
		"RUN cd /tmp && \\\nmake install\n"
	if got != want {
		t.Errorf("Emit() =\n%s\nwant\n%s", got, want)
	}
}

func TestEmit_DockerBaseFromDependent(t *testing.T) {
	t.Parallel()

	r, err := resolve.New([]*slice.Slice{
		mk("jekyll", []string{"debian:jessie"}, []string{"wget"}, "gem install jekyll"),
		mk("wget", nil, nil, "apt-get install -y wget"),
	}, resolve.Options{
		OS:     slice.OS{Name: "debian"},
		Policy: version.ExactOrGreater,
	})
	if err != nil {
		t.Fatal(err)
	}

	got, err := Emit(r, []resolve.NodeID{find(t, r, "jekyll")}, Docker{})
	if err != nil {
		t.Fatal(err)
	}
	want := "FROM debian:jessie\n\n" +
		"RUN apt-get install -y wget\n" +
		"RUN gem install jekyll\n"
	if got != want {
		t.Errorf("Emit() =\n%s\nwant\n%s", got, want)
	}
}

func TestEmit_DockerWithoutBase(t *testing.T) {
	t.Parallel()

	r := resolver(t, mk("wget", nil, nil, "apt-get install -y wget"))
	got, err := Emit(r, []resolve.NodeID{find(t, r, "wget")}, Docker{})
	if err != nil {
		t.Fatal(err)
	}
	if got != "RUN apt-get install -y wget\n" {
		t.Errorf("Emit() = %q", got)
	}
}

func TestOrder_SharedDependencyOnce(t *testing.T) {
	t.Parallel()

	r := resolver(t,
		mk("site", nil, []string{"jekyll", "nginx"}),
		mk("jekyll", nil, []string{"ruby"}),
		mk("nginx", nil, []string{"ruby", "openssl"}),
		mk("ruby", nil, []string{"openssl"}),
		mk("openssl", nil, nil),
	)

	var got []string
	for _, id := range Order(r, []resolve.NodeID{find(t, r, "site"), find(t, r, "ruby")}) {
		got = append(got, r.Slice(id).Name())
	}
	want := []string{"openssl", "ruby", "jekyll", "nginx", "site"}
	if !slices.Equal(got, want) {
		t.Errorf("Order() = %v, want %v", got, want)
	}
}

func TestEmit_RefusesMissing(t *testing.T) {
	t.Parallel()

	r := resolver(t,
		mk("ruby", nil, []string{"curl"}, "make"),
		mk("apache", nil, []string{"ruby", "gooo"}, "a2enmod"),
		mk("wget", nil, nil, "apt-get install wget"),
	)

	out, err := Emit(r, []resolve.NodeID{find(t, r, "apache"), find(t, r, "ruby")}, Shell{})
	if out != "" {
		t.Errorf("expected no output, got %q", out)
	}
	if !errors.Is(err, ErrMissingDependencies) {
		t.Fatalf("err = %v, want ErrMissingDependencies", err)
	}
	var mde *MissingDependenciesError
	if !errors.As(err, &mde) {
		t.Fatalf("err is %T", err)
	}
	want := []resolve.MissingLink{{Slice: "ruby", Dependency: "curl"}, {Slice: "apache", Dependency: "gooo"}}
	if !slices.Equal(mde.Links, want) {
		t.Errorf("Links = %v, want %v", mde.Links, want)
	}

	// Unrelated slices still emit.
	if _, err := Emit(r, []resolve.NodeID{find(t, r, "wget")}, Shell{}); err != nil {
		t.Errorf("wget should emit: %v", err)
	}
}

func TestParseFormat(t *testing.T) {
	t.Parallel()

	for _, name := range []string{"sh", "Shell"} {
		if f, err := ParseFormat(name); err != nil || f != (Shell{}) {
			t.Errorf("ParseFormat(%q) = %v, %v", name, f, err)
		}
	}
	for _, name := range []string{"d", "docker", "Dockerfile"} {
		if f, err := ParseFormat(name); err != nil || f != (Docker{}) {
			t.Errorf("ParseFormat(%q) = %v, %v", name, f, err)
		}
	}
	if _, err := ParseFormat("ps1"); err == nil {
		t.Error("ParseFormat(ps1) should fail")
	}
}

func TestValidateShell(t *testing.T) {
	t.Parallel()

	if err := ValidateShell("if true; then\n  echo ok\nfi\n"); err != nil {
		t.Errorf("valid script rejected: %v", err)
	}
	if err := ValidateShell("if true; then\n  echo broken\n"); err == nil {
		t.Error("unterminated if should fail")
	}
}

func TestDocker_FromOnlyWhenFirst(t *testing.T) {
	t.Parallel()

	f := Fragment{Name: "x", From: []string{"alpine:3"}, Run: []string{"true"}}
	if got := (Docker{}).Format(f, false); got != "RUN true\n" {
		t.Errorf("Format(first=false) = %q", got)
	}
	if got := (Docker{}).Format(Fragment{From: []string{"a", "b"}}, true); got != "FROM a\nFROM b\n\n" {
		t.Errorf("Format(no RUN) = %q", got)
	}
}
