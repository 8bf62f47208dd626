// SPDX-License-Identifier: MPL-2.0

package issue

import (
	"slices"

	"github.com/charmbracelet/glamour"
	"golang.org/x/exp/maps"
)

// Id identifies a known class of user-facing failure.
type Id int

const (
	CatalogRootNotFoundId Id = iota + 1
	EmptyCatalogId
	InvalidVersionId
	SliceNotFoundId
	MissingDependenciesId
	MissingOSSectionId
	DependencyCycleId
	ConfigLoadFailedId
	FetchFailedId
	DockerNotFoundId
	PermissionDeniedId
)

type MarkdownMsg string

type HttpLink string

// Issue is a Markdown explanation of a failure plus related links.
type Issue struct {
	id       Id
	mdMsg    MarkdownMsg
	docLinks []HttpLink
}

func (i *Issue) Id() Id {
	return i.id
}

func (i *Issue) MarkdownMsg() MarkdownMsg {
	return i.mdMsg
}

func (i *Issue) DocLinks() []HttpLink {
	return slices.Clone(i.docLinks)
}

// Render returns the issue as terminal-styled Markdown using the given
// glamour style ("dark", "light", "notty", "auto" or a JSON style path).
func (i *Issue) Render(stylePath string) (string, error) {
	md := string(i.mdMsg)
	if len(i.docLinks) > 0 {
		md += "\n\n## See also\n"
		for _, link := range i.docLinks {
			md += "- <" + string(link) + ">\n"
		}
	}
	return render(md, stylePath)
}

var (
	render = glamour.Render

	catalogRootNotFoundIssue = &Issue{
		id: CatalogRootNotFoundId,
		mdMsg: `
# Slice catalog not found!

The slices root directory does not exist, so there is nothing to build from.

## Things you can try:
- Download the published slices:
~~~
$ sb fetch
~~~

- Point sb at an existing catalog:
~~~
$ sb make --root /path/to/slices jekyll
~~~

- Set ` + "`slices_root`" + ` in your config file.`,
		docLinks: []HttpLink{"https://github.com/slicebuild/slices"},
	}

	emptyCatalogIssue = &Issue{
		id: EmptyCatalogId,
		mdMsg: `
# Slice catalog is empty!

The slices root exists but contains no bucket directories. Buckets are
directories named ` + "`<name>-<version>`" + `, for example ` + "`slices-1.0.1`" + `.

## Things you can try:
- Run ` + "`sb fetch`" + ` to download a bucket
- Check that the root points at the directory that holds the buckets,
  not at a bucket itself`,
	}

	invalidVersionIssue = &Issue{
		id: InvalidVersionId,
		mdMsg: `
# Invalid version!

A version must look like ` + "`1`" + `, ` + "`1.2`" + `, ` + "`1.2.3`" + ` or
` + "`1.2.3-beta.1+build`" + `.

## Things you can try:
- Rename the bucket directory or file so its version part is well formed
- Quote the requested ` + "`name-version`" + ` correctly on the command line`,
	}

	sliceNotFoundIssue = &Issue{
		id: SliceNotFoundId,
		mdMsg: `
# Slice not found!

No slice in the catalog matches the requested name, version and OS.

## Things you can try:
- List what is available:
~~~
$ sb list --os debian
~~~

- Search by substring:
~~~
$ sb find ruby
~~~

- Relax the version policy with ` + "`--policy exact-or-greater`",
	}

	missingDependenciesIssue = &Issue{
		id: MissingDependenciesId,
		mdMsg: `
# Missing dependencies!

At least one requested slice depends on slices that are not in the catalog
for the requested OS. Nothing was written.

## Things you can try:
- Check the ` + "`DEP`" + ` sections of the slices listed above
- Make sure the missing slices list your OS in their ` + "`OS`" + ` section
- Update the catalog with ` + "`sb fetch --force`",
	}

	missingOSSectionIssue = &Issue{
		id: MissingOSSectionId,
		mdMsg: `
# Slice has no OS section!

Every slice must declare the operating systems it supports:

~~~
OS
debian-8
ubuntu-14.04
~~~

## Things you can try:
- Run ` + "`sb check`" + ` to find every slice without an OS section`,
	}

	dependencyCycleIssue = &Issue{
		id: DependencyCycleId,
		mdMsg: `
# Dependency cycle detected!

Slices depend on each other in a loop, so no build order exists.

## Things you can try:
- Remove one of the ` + "`DEP`" + ` entries listed in the cycle
- Run ` + "`sb graph <slice>`" + ` to inspect the dependency tree`,
	}

	configLoadFailedIssue = &Issue{
		id: ConfigLoadFailedId,
		mdMsg: `
# Failed to load configuration!

## Things you can try:
- Validate the file:
~~~
$ sb config validate
~~~

- Print the effective configuration:
~~~
$ sb config show
~~~

- Recreate a default file with ` + "`sb config init --force`",
	}

	fetchFailedIssue = &Issue{
		id: FetchFailedId,
		mdMsg: `
# Failed to fetch slices!

## Things you can try:
- Check your network connection
- Check that ` + "`fetch.repo`" + ` points at a reachable git repository
  with version-named branches
- Download an archive explicitly:
~~~
$ sb fetch --url https://example.com/slices-1.0.1.zip
~~~`,
	}

	dockerNotFoundIssue = &Issue{
		id: DockerNotFoundId,
		mdMsg: `
# Docker not found!

` + "`sb test`" + ` builds the generated Dockerfile with the docker CLI.

## Things you can try:
- Install Docker and make sure ` + "`docker`" + ` is on your PATH
- Generate the Dockerfile only:
~~~
$ sb make -f d jekyll
~~~`,
	}

	permissionDeniedIssue = &Issue{
		id: PermissionDeniedId,
		mdMsg: `
# Permission denied!

## Things you can try:
- Check permissions of the slices root and the output directory
- Write the output elsewhere with ` + "`-o`",
	}

	issues = map[Id]*Issue{
		catalogRootNotFoundIssue.Id(): catalogRootNotFoundIssue,
		emptyCatalogIssue.Id():        emptyCatalogIssue,
		invalidVersionIssue.Id():      invalidVersionIssue,
		sliceNotFoundIssue.Id():       sliceNotFoundIssue,
		missingDependenciesIssue.Id(): missingDependenciesIssue,
		missingOSSectionIssue.Id():    missingOSSectionIssue,
		dependencyCycleIssue.Id():     dependencyCycleIssue,
		configLoadFailedIssue.Id():    configLoadFailedIssue,
		fetchFailedIssue.Id():         fetchFailedIssue,
		dockerNotFoundIssue.Id():      dockerNotFoundIssue,
		permissionDeniedIssue.Id():    permissionDeniedIssue,
	}
)

// Values returns every known issue ordered by Id.
func Values() []*Issue {
	ids := maps.Keys(issues)
	slices.Sort(ids)
	out := make([]*Issue, 0, len(ids))
	for _, id := range ids {
		out = append(out, issues[id])
	}
	return out
}

// Get returns the issue for id, or nil if it is unknown.
func Get(id Id) *Issue {
	return issues[id]
}
