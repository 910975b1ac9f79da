// Package testsupport 提供测试用内存仓储与桩模型
package testsupport

import (
	"context"
	"fmt"
	"sync"

	"autopen-api/internal/domain/entity"
	"autopen-api/internal/domain/repository"
	apperrors "autopen-api/pkg/errors"
)

type MemProjects struct {
	mu       sync.Mutex
	projects map[string]*entity.Project
	seq      int
}

func NewMemProjects() *MemProjects {
	return &MemProjects{projects: make(map[string]*entity.Project)}
}

func (r *MemProjects) Create(ctx context.Context, p *entity.Project) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if p.ID == "" {
		r.seq++
		p.ID = fmt.Sprintf("project-%d", r.seq)
	}
	cp := *p
	r.projects[p.ID] = &cp
	return nil
}

func (r *MemProjects) GetByID(ctx context.Context, id string) (*entity.Project, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	p, ok := r.projects[id]
	if !ok {
		return nil, apperrors.ErrProjectNotFound
	}
	cp := *p
	return &cp, nil
}

func (r *MemProjects) GetByIDForOwner(ctx context.Context, id, ownerID string) (*entity.Project, error) {
	p, err := r.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if p.OwnerID != ownerID {
		return nil, apperrors.ErrProjectNotFound
	}
	return p, nil
}

func (r *MemProjects) Update(ctx context.Context, p *entity.Project) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.projects[p.ID]; !ok {
		return apperrors.ErrProjectNotFound
	}
	cp := *p
	r.projects[p.ID] = &cp
	return nil
}

func (r *MemProjects) Delete(ctx context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.projects, id)
	return nil
}

func (r *MemProjects) ListByOwner(ctx context.Context, ownerID string, filter *repository.ProjectFilter, p repository.Pagination) (*repository.PagedResult[*entity.Project], error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	items := make([]*entity.Project, 0)
	for _, proj := range r.projects {
		if proj.OwnerID == ownerID {
			cp := *proj
			items = append(items, &cp)
		}
	}
	return repository.NewPagedResult(items, int64(len(items)), p), nil
}

func (r *MemProjects) UpdateStep(ctx context.Context, id, step string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	p, ok := r.projects[id]
	if !ok {
		return apperrors.ErrProjectNotFound
	}
	p.CurrentStep = step
	return nil
}

type MemBrainDumps struct {
	mu    sync.Mutex
	dumps map[string]*entity.BrainDump
	files map[string]*entity.BrainDumpFile
	links map[string]*entity.BrainDumpLink
	seq   int
}

func NewMemBrainDumps() *MemBrainDumps {
	return &MemBrainDumps{
		dumps: make(map[string]*entity.BrainDump),
		files: make(map[string]*entity.BrainDumpFile),
		links: make(map[string]*entity.BrainDumpLink),
	}
}

func (r *MemBrainDumps) nextID(prefix string) string {
	r.seq++
	return fmt.Sprintf("%s-%d", prefix, r.seq)
}

func (r *MemBrainDumps) Create(ctx context.Context, d *entity.BrainDump) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if d.ID == "" {
		d.ID = r.nextID("dump")
	}
	cp := *d
	r.dumps[d.ID] = &cp
	return nil
}

func (r *MemBrainDumps) GetByID(ctx context.Context, id string) (*entity.BrainDump, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	d, ok := r.dumps[id]
	if !ok {
		return nil, apperrors.ErrBrainDumpNotFound
	}
	cp := *d
	return &cp, nil
}

func (r *MemBrainDumps) GetByProject(ctx context.Context, projectID string) (*entity.BrainDump, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, d := range r.dumps {
		if d.ProjectID == projectID {
			cp := *d
			return &cp, nil
		}
	}
	return nil, apperrors.ErrBrainDumpNotFound
}

func (r *MemBrainDumps) Update(ctx context.Context, d *entity.BrainDump) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.dumps[d.ID]; !ok {
		return apperrors.ErrBrainDumpNotFound
	}
	cp := *d
	r.dumps[d.ID] = &cp
	return nil
}

func (r *MemBrainDumps) CreateFile(ctx context.Context, f *entity.BrainDumpFile) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if f.ID == "" {
		f.ID = r.nextID("file")
	}
	cp := *f
	r.files[f.ID] = &cp
	return nil
}

func (r *MemBrainDumps) GetFileByID(ctx context.Context, id string) (*entity.BrainDumpFile, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	f, ok := r.files[id]
	if !ok {
		return nil, apperrors.ErrNotFound
	}
	cp := *f
	return &cp, nil
}

func (r *MemBrainDumps) ListFiles(ctx context.Context, brainDumpID string) ([]*entity.BrainDumpFile, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]*entity.BrainDumpFile, 0)
	for _, f := range r.files {
		if f.BrainDumpID == brainDumpID {
			cp := *f
			out = append(out, &cp)
		}
	}
	return out, nil
}

func (r *MemBrainDumps) DeleteFile(ctx context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.files, id)
	return nil
}

func (r *MemBrainDumps) CreateLink(ctx context.Context, l *entity.BrainDumpLink) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if l.ID == "" {
		l.ID = r.nextID("link")
	}
	cp := *l
	r.links[l.ID] = &cp
	return nil
}

func (r *MemBrainDumps) GetLinkByID(ctx context.Context, id string) (*entity.BrainDumpLink, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	l, ok := r.links[id]
	if !ok {
		return nil, apperrors.ErrLinkNotFound
	}
	cp := *l
	return &cp, nil
}

func (r *MemBrainDumps) ListLinks(ctx context.Context, brainDumpID string) ([]*entity.BrainDumpLink, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]*entity.BrainDumpLink, 0)
	for _, l := range r.links {
		if l.BrainDumpID == brainDumpID {
			cp := *l
			out = append(out, &cp)
		}
	}
	return out, nil
}

func (r *MemBrainDumps) UpdateLink(ctx context.Context, l *entity.BrainDumpLink) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.links[l.ID]; !ok {
		return apperrors.ErrLinkNotFound
	}
	cp := *l
	r.links[l.ID] = &cp
	return nil
}

func (r *MemBrainDumps) DeleteLink(ctx context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.links, id)
	return nil
}

type MemIdeas struct {
	mu    sync.Mutex
	ideas map[string]*entity.Idea
	seq   int
}

func NewMemIdeas() *MemIdeas {
	return &MemIdeas{ideas: make(map[string]*entity.Idea)}
}

func (r *MemIdeas) Create(ctx context.Context, idea *entity.Idea) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if idea.ID == "" {
		r.seq++
		idea.ID = fmt.Sprintf("idea-%d", r.seq)
	}
	cp := *idea
	r.ideas[idea.ID] = &cp
	return nil
}

func (r *MemIdeas) CreateBatch(ctx context.Context, ideas []*entity.Idea) error {
	for _, idea := range ideas {
		if err := r.Create(ctx, idea); err != nil {
			return err
		}
	}
	return nil
}

func (r *MemIdeas) GetByID(ctx context.Context, id string) (*entity.Idea, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	idea, ok := r.ideas[id]
	if !ok {
		return nil, apperrors.ErrIdeaNotFound
	}
	cp := *idea
	return &cp, nil
}

func (r *MemIdeas) ListByProject(ctx context.Context, projectID string) ([]*entity.Idea, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]*entity.Idea, 0)
	for _, idea := range r.ideas {
		if idea.ProjectID == projectID {
			cp := *idea
			out = append(out, &cp)
		}
	}
	return out, nil
}

func (r *MemIdeas) MarkSelected(ctx context.Context, projectID, ideaID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.ideas[ideaID]; !ok {
		return apperrors.ErrIdeaNotFound
	}
	for _, idea := range r.ideas {
		if idea.ProjectID == projectID {
			idea.Selected = idea.ID == ideaID
		}
	}
	return nil
}

func (r *MemIdeas) DeleteByProject(ctx context.Context, projectID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for id, idea := range r.ideas {
		if idea.ProjectID == projectID {
			delete(r.ideas, id)
		}
	}
	return nil
}

type MemEbooks struct {
	mu     sync.Mutex
	ebooks map[string]*entity.Ebook
	seq    int
}

func NewMemEbooks() *MemEbooks {
	return &MemEbooks{ebooks: make(map[string]*entity.Ebook)}
}

func (r *MemEbooks) Create(ctx context.Context, e *entity.Ebook) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if e.ID == "" {
		r.seq++
		e.ID = fmt.Sprintf("ebook-%d", r.seq)
	}
	cp := *e
	r.ebooks[e.ID] = &cp
	return nil
}

func (r *MemEbooks) GetByID(ctx context.Context, id string) (*entity.Ebook, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	e, ok := r.ebooks[id]
	if !ok {
		return nil, apperrors.ErrEbookNotFound
	}
	cp := *e
	return &cp, nil
}

func (r *MemEbooks) GetByProject(ctx context.Context, projectID string) (*entity.Ebook, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, e := range r.ebooks {
		if e.ProjectID == projectID {
			cp := *e
			return &cp, nil
		}
	}
	return nil, apperrors.ErrEbookNotFound
}

func (r *MemEbooks) Update(ctx context.Context, e *entity.Ebook) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.ebooks[e.ID]; !ok {
		return apperrors.ErrEbookNotFound
	}
	cp := *e
	r.ebooks[e.ID] = &cp
	return nil
}

func (r *MemEbooks) Delete(ctx context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.ebooks, id)
	return nil
}

type MemChapters struct {
	mu       sync.Mutex
	chapters map[string]*entity.Chapter
	seq      int
}

func NewMemChapters() *MemChapters {
	return &MemChapters{chapters: make(map[string]*entity.Chapter)}
}

func (r *MemChapters) Create(ctx context.Context, c *entity.Chapter) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if c.ID == "" {
		r.seq++
		c.ID = fmt.Sprintf("chapter-%d", r.seq)
	}
	cp := *c
	r.chapters[c.ID] = &cp
	return nil
}

func (r *MemChapters) GetByID(ctx context.Context, id string) (*entity.Chapter, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	c, ok := r.chapters[id]
	if !ok {
		return nil, apperrors.ErrChapterNotFound
	}
	cp := *c
	return &cp, nil
}

func (r *MemChapters) Update(ctx context.Context, c *entity.Chapter) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.chapters[c.ID]; !ok {
		return apperrors.ErrChapterNotFound
	}
	cp := *c
	r.chapters[c.ID] = &cp
	return nil
}

func (r *MemChapters) Delete(ctx context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.chapters[id]; !ok {
		return apperrors.ErrChapterNotFound
	}
	delete(r.chapters, id)
	return nil
}

func (r *MemChapters) ListByEbook(ctx context.Context, ebookID string) ([]*entity.Chapter, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]*entity.Chapter, 0)
	for _, c := range r.chapters {
		if c.EbookID == ebookID {
			cp := *c
			out = append(out, &cp)
		}
	}
	sortChaptersByOrder(out)
	return out, nil
}

func (r *MemChapters) ListByEbookAndStatus(ctx context.Context, ebookID string, status entity.ChapterStatus) ([]*entity.Chapter, error) {
	all, _ := r.ListByEbook(ctx, ebookID)
	out := make([]*entity.Chapter, 0)
	for _, c := range all {
		if c.Status == status {
			out = append(out, c)
		}
	}
	return out, nil
}

func (r *MemChapters) UpdateContent(ctx context.Context, id, content string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	c, ok := r.chapters[id]
	if !ok {
		return apperrors.ErrChapterNotFound
	}
	c.UpdateContent(content)
	return nil
}

func (r *MemChapters) UpdateStatus(ctx context.Context, id string, status entity.ChapterStatus) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	c, ok := r.chapters[id]
	if !ok {
		return apperrors.ErrChapterNotFound
	}
	c.Status = status
	return nil
}

func (r *MemChapters) GetNextOrderIndex(ctx context.Context, ebookID string) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	max := -1
	for _, c := range r.chapters {
		if c.EbookID == ebookID && c.OrderIndex > max {
			max = c.OrderIndex
		}
	}
	return max + 1, nil
}

func (r *MemChapters) CountByEbook(ctx context.Context, ebookID string) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var n int64
	for _, c := range r.chapters {
		if c.EbookID == ebookID {
			n++
		}
	}
	return n, nil
}

func (r *MemChapters) CountByStatus(ctx context.Context, ebookID string, status entity.ChapterStatus) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var n int64
	for _, c := range r.chapters {
		if c.EbookID == ebookID && c.Status == status {
			n++
		}
	}
	return n, nil
}

func sortChaptersByOrder(chapters []*entity.Chapter) {
	for i := 1; i < len(chapters); i++ {
		for j := i; j > 0 && chapters[j-1].OrderIndex > chapters[j].OrderIndex; j-- {
			chapters[j-1], chapters[j] = chapters[j], chapters[j-1]
		}
	}
}

type NoopTx struct{}

func (NoopTx) WithTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	return fn(ctx)
}

type MemJobs struct {
	mu   sync.Mutex
	jobs map[string]*entity.GenerationJob
	seq  int
}

func NewMemJobs() *MemJobs {
	return &MemJobs{jobs: make(map[string]*entity.GenerationJob)}
}

func (r *MemJobs) Create(ctx context.Context, j *entity.GenerationJob) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if j.ID == "" {
		r.seq++
		j.ID = fmt.Sprintf("job-%d", r.seq)
	}
	cp := *j
	r.jobs[j.ID] = &cp
	return nil
}

func (r *MemJobs) GetByID(ctx context.Context, id string) (*entity.GenerationJob, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	j, ok := r.jobs[id]
	if !ok {
		return nil, apperrors.ErrJobNotFound
	}
	cp := *j
	return &cp, nil
}

func (r *MemJobs) Update(ctx context.Context, j *entity.GenerationJob) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.jobs[j.ID]; !ok {
		return apperrors.ErrJobNotFound
	}
	cp := *j
	r.jobs[j.ID] = &cp
	return nil
}

func (r *MemJobs) ListByProject(ctx context.Context, projectID string, filter *repository.JobFilter, p repository.Pagination) (*repository.PagedResult[*entity.GenerationJob], error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	items := make([]*entity.GenerationJob, 0)
	for _, j := range r.jobs {
		if j.ProjectID == projectID {
			cp := *j
			items = append(items, &cp)
		}
	}
	return repository.NewPagedResult(items, int64(len(items)), p), nil
}

func (r *MemJobs) UpdateStatus(ctx context.Context, id string, status entity.JobStatus) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	j, ok := r.jobs[id]
	if !ok {
		return apperrors.ErrJobNotFound
	}
	j.Status = status
	return nil
}

func (r *MemJobs) UpdateProgress(ctx context.Context, id string, progress int) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	j, ok := r.jobs[id]
	if !ok {
		return apperrors.ErrJobNotFound
	}
	j.Progress = progress
	return nil
}

func (r *MemJobs) GetLatestByType(ctx context.Context, projectID string, jobType entity.JobType) (*entity.GenerationJob, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var latest *entity.GenerationJob
	for _, j := range r.jobs {
		if j.ProjectID == projectID && j.JobType == jobType {
			if latest == nil || j.CreatedAt.After(latest.CreatedAt) {
				latest = j
			}
		}
	}
	if latest == nil {
		return nil, apperrors.ErrJobNotFound
	}
	cp := *latest
	return &cp, nil
}
