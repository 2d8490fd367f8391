package scene

import (
	"slices"
	"strings"

	"github.com/milk9111/rulesplayer/ecs"
	"github.com/milk9111/rulesplayer/rules"
)

type TagsComponent struct {
	ecs.Base
	TagsString string `prop:"tagsString"`
	tags       []string
}

// TagsBehavior indexes actors by case-insensitive tags.
type TagsBehavior struct {
	base[*TagsComponent]
	index map[string][]ecs.ActorID
}

func newTagsBehavior(s *Scene) *TagsBehavior {
	b := &TagsBehavior{index: make(map[string][]ecs.ActorID)}
	b.init(s, "Tags", TagsID, func() *TagsComponent { return &TagsComponent{} }, b)
	return b
}

// ParseTags splits a space separated tag list, lowercased and without
// duplicates.
func ParseTags(s string) []string {
	var tags []string
	for _, f := range strings.Fields(s) {
		t := strings.ToLower(f)
		if !slices.Contains(tags, t) {
			tags = append(tags, t)
		}
	}
	return tags
}

func (b *TagsBehavior) handleEnableComponent(a ecs.ActorID, c *TagsComponent) {
	c.tags = ParseTags(c.TagsString)
	for _, t := range c.tags {
		b.index[t] = append(b.index[t], a)
	}
}

func (b *TagsBehavior) handleDisableComponent(a ecs.ActorID, c *TagsComponent, removeActor bool) {
	for _, t := range c.tags {
		b.unindex(t, a)
	}
	c.tags = nil
}

func (b *TagsBehavior) unindex(tag string, a ecs.ActorID) {
	list := b.index[tag]
	if i := slices.Index(list, a); i >= 0 {
		list = slices.Delete(list, i, i+1)
	}
	if len(list) == 0 {
		delete(b.index, tag)
		return
	}
	b.index[tag] = list
}

func (b *TagsBehavior) handleSetProperty(a ecs.ActorID, c *TagsComponent, prop string, v rules.Value, relative bool) bool {
	if prop != "tagsString" {
		return false
	}
	s := v.AsString()
	if relative {
		s = c.TagsString + " " + s
	}
	b.setTags(a, c, s)
	return true
}

func (b *TagsBehavior) setTags(a ecs.ActorID, c *TagsComponent, s string) {
	enabled := b.IsComponentEnabled(a)
	if enabled {
		b.handleDisableComponent(a, c, false)
	}
	c.TagsString = s
	if enabled {
		b.handleEnableComponent(a, c)
	}
}

// HasTag reports whether a carries tag. The empty tag matches every actor.
func (b *TagsBehavior) HasTag(a ecs.ActorID, tag string) bool {
	if tag == "" {
		return b.scene.HasActor(a)
	}
	c := b.GetEnabled(a)
	return c != nil && slices.Contains(c.tags, strings.ToLower(tag))
}

func (b *TagsBehavior) AddTag(a ecs.ActorID, tag string) {
	c := b.Get(a)
	if c == nil {
		b.AddComponent(a)
		if c = b.Get(a); c == nil {
			return
		}
		b.EnableComponent(a)
	}
	if slices.Contains(ParseTags(c.TagsString), strings.ToLower(tag)) {
		return
	}
	b.setTags(a, c, strings.TrimSpace(c.TagsString+" "+tag))
}

func (b *TagsBehavior) RemoveTag(a ecs.ActorID, tag string) {
	c := b.Get(a)
	if c == nil {
		return
	}
	tag = strings.ToLower(tag)
	var kept []string
	for _, f := range strings.Fields(c.TagsString) {
		if strings.ToLower(f) != tag {
			kept = append(kept, f)
		}
	}
	b.setTags(a, c, strings.Join(kept, " "))
}

// EachActorWithTag visits tagged actors in the order they were tagged. The
// empty tag visits every actor.
func (b *TagsBehavior) EachActorWithTag(tag string, fn func(ecs.ActorID)) {
	if tag == "" {
		b.scene.ForEachActor(fn)
		return
	}
	list := slices.Clone(b.index[strings.ToLower(tag)])
	for _, a := range list {
		if b.scene.HasActor(a) {
			fn(a)
		}
	}
}

// IndexActorWithTag returns the i-th actor with tag, or NullActor.
func (b *TagsBehavior) IndexActorWithTag(tag string, i int) ecs.ActorID {
	if tag == "" {
		return b.scene.IndexActor(i)
	}
	list := b.index[strings.ToLower(tag)]
	if i < 0 || i >= len(list) {
		return ecs.NullActor
	}
	return list[i]
}

func (b *TagsBehavior) NumActorsWithTag(tag string) int {
	if tag == "" {
		return b.scene.NumActors()
	}
	return len(b.index[strings.ToLower(tag)])
}

type tagParam struct {
	Tag string
}

func (p *tagParam) Fields(f rules.Fields) { f.String("tag", &p.Tag) }

type AddTagResponse struct {
	rules.BaseResponse
	tagParam
	b *TagsBehavior
}

func (r *AddTagResponse) Run(ctx *rules.Context) { r.b.AddTag(ctx.ActorID, r.Tag) }

type RemoveTagResponse struct {
	rules.BaseResponse
	tagParam
	b *TagsBehavior
}

func (r *RemoveTagResponse) Run(ctx *rules.Context) { r.b.RemoveTag(ctx.ActorID, r.Tag) }

type HasTagCondition struct {
	tagParam
	b *TagsBehavior
}

func (c *HasTagCondition) Eval(ctx *rules.Context) bool { return c.b.HasTag(ctx.ActorID, c.Tag) }

func (b *TagsBehavior) registerRules(c *rules.Catalog) {
	c.RegisterResponse("add tag", TagsID, func() rules.Response { return &AddTagResponse{b: b} })
	c.RegisterResponse("remove tag", TagsID, func() rules.Response { return &RemoveTagResponse{b: b} })
	c.RegisterCondition("has tag", TagsID, func() rules.Condition { return &HasTagCondition{b: b} })
}
