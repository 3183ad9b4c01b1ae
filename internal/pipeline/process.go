package pipeline

import (
	"context"

	"git.home.luguber.info/inful/symdoc/internal/autolink"
	"git.home.luguber.info/inful/symdoc/internal/declaration"
	"git.home.luguber.info/inful/symdoc/internal/docindex"
	"git.home.luguber.info/inful/symdoc/internal/foundation/errors"
	"git.home.luguber.info/inful/symdoc/internal/grouper"
	"git.home.luguber.info/inful/symdoc/internal/logfields"
	"git.home.luguber.info/inful/symdoc/internal/markdown"
	"git.home.luguber.info/inful/symdoc/internal/search"
	"git.home.luguber.info/inful/symdoc/internal/sourcehost"
	"git.home.luguber.info/inful/symdoc/internal/sourcekit"
)

func stageBuild(ctx context.Context, bs *buildState) error {
	bs.builder = declaration.NewBuilder(bs.cfg.BuilderOptions(), bs.stats, bs.logger)
	for _, m := range bs.modules {
		var decls []*declaration.Declaration
		for _, f := range m.files {
			if err := ctx.Err(); err != nil {
				return err
			}
			built, err := bs.builder.Build([]sourcekit.Record{f.Root}, m.name)
			if err != nil {
				if ce, ok := errors.AsClassified(err); ok {
					return ce.WithContext(logfields.KeyModule, m.name).WithContext(logfields.KeyPath, f.Path)
				}
				return err
			}
			decls = append(decls, built...)
		}
		bs.recorder.SetDeclarations(m.name, countAll(decls))
		bs.decls = append(bs.decls, decls...)
	}
	return nil
}

func stageMerge(_ context.Context, bs *buildState) error {
	bs.decls = bs.builder.Process(bs.decls)
	bs.declarationCount = countAll(bs.decls)
	return nil
}

func stageIndex(_ context.Context, bs *buildState) error {
	bs.index = docindex.New(bs.decls)
	return nil
}

func stageGroup(_ context.Context, bs *buildState) error {
	g := grouper.New(bs.cfg.GrouperOptions(), bs.index, markdown.New(), bs.logger)
	groups, err := g.Group(bs.decls)
	if err != nil {
		return err
	}
	bs.groups = groups
	bs.logger.Debug("Grouped declarations", logfields.Count(len(groups)))
	return nil
}

func stageURLs(_ context.Context, bs *buildState) error {
	declaration.AssignURLs(bs.groups, declaration.URLLayout{
		SafeFilenames:   bs.cfg.UseSafeFilenames,
		MultipleModules: bs.cfg.BuilderOptions().MultipleModules(),
		Logger:          bs.logger,
	})
	return nil
}

// stageSourceLinks links declarations to their source files. Without an
// explicit source host the git repository holding the source directory is
// used, if there is one.
func stageSourceLinks(_ context.Context, bs *buildState) error {
	hostCfg := bs.cfg.SourceHostConfig()
	if hostCfg.URL == "" && hostCfg.FilesURL == "" && hostCfg.Root != "" {
		repo, err := sourcehost.Discover(hostCfg.Root)
		if err != nil {
			bs.logger.Debug("No git repository for source links", logfields.Path(hostCfg.Root), logfields.Error(err))
			return nil
		}
		discovered, ok := repo.Config()
		if !ok {
			bs.logger.Debug("Repository has no usable remote for source links", logfields.Path(repo.Root))
			return nil
		}
		hostCfg = discovered
	}

	host, err := sourcehost.New(hostCfg)
	if err != nil {
		return err
	}
	if host == nil {
		return nil
	}
	linked := 0
	declaration.WalkAll(bs.groups, func(d *declaration.Declaration) {
		if d.SourceURL = host.ItemURL(d); d.SourceURL != "" {
			linked++
		}
	})
	bs.logger.Debug("Linked declarations to source", "host", host.Name(), logfields.Count(linked))
	return nil
}

func stageAutolink(_ context.Context, bs *buildState) error {
	linker := autolink.New(bs.index, bs.logger)
	if err := linker.Link(bs.groups); err != nil {
		return err
	}
	bs.autolinks = linker.Linked()
	bs.recorder.AddAutolinks(bs.autolinks)
	return nil
}

func stageSearch(_ context.Context, bs *buildState) error {
	bs.search = search.Build(bs.groups)
	return nil
}

func countAll(decls []*declaration.Declaration) int {
	n := 0
	declaration.WalkAll(decls, func(*declaration.Declaration) { n++ })
	return n
}
