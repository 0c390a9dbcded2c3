package services

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	redisclient "github.com/Amsterdam/meldingen-sub000/internal/clients/redis"
	"github.com/Amsterdam/meldingen-sub000/internal/data/repos/formdef"
	meldingrepo "github.com/Amsterdam/meldingen-sub000/internal/data/repos/melding"
	"github.com/Amsterdam/meldingen-sub000/internal/domain"
	"github.com/Amsterdam/meldingen-sub000/internal/platform/logger"
	"github.com/Amsterdam/meldingen-sub000/internal/rules"
	"github.com/Amsterdam/meldingen-sub000/internal/schema"
)

// TreeNode is the rendered form tree served to clients. Children are sorted
// by position; questions are attached to answerable leaves.
type TreeNode struct {
	ID           uuid.UUID          `json:"id"`
	Key          string             `json:"key"`
	Type         string             `json:"type"`
	Label        string             `json:"label,omitempty"`
	Description  string             `json:"description,omitempty"`
	Position     int                `json:"position"`
	Required     bool               `json:"required,omitempty"`
	Validate     json.RawMessage    `json:"validate,omitempty"`
	Options      []schema.Option    `json:"options,omitempty"`
	Data         *schema.SelectData `json:"data,omitempty"`
	QuestionID   *uuid.UUID         `json:"question_id,omitempty"`
	QuestionText string             `json:"question_text,omitempty"`
	Components   []TreeNode         `json:"components,omitempty"`
}

// FormTree is the cacheable rendering of one form.
type FormTree struct {
	ID               uuid.UUID  `json:"id"`
	Title            string     `json:"title"`
	ClassificationID *uuid.UUID `json:"classification_id,omitempty"`
	Components       []TreeNode `json:"components"`
}

// FormService rebuilds and serves form schema trees. Rebuilds replace the
// whole tree atomically and purge answers that reference removed questions.
type FormService interface {
	RebuildPrimary(ctx context.Context, title string, inputs []schema.ComponentInput) (*domain.Form, error)
	RebuildForClassification(ctx context.Context, classificationID uuid.UUID, title string, inputs []schema.ComponentInput) (*domain.Form, error)
	PrimaryTree(ctx context.Context) (json.RawMessage, error)
	Tree(ctx context.Context, formID uuid.UUID) (json.RawMessage, error)
	TreeForClassification(ctx context.Context, classificationID uuid.UUID) (json.RawMessage, error)
}

type formService struct {
	db    *gorm.DB
	log   *logger.Logger
	cache redisclient.SchemaCache

	formRepo      formdef.FormRepo
	componentRepo formdef.ComponentRepo
	questionRepo  formdef.QuestionRepo
	answerRepo    meldingrepo.AnswerRepo
	clsRepo       formdef.ClassificationRepo
}

func NewFormService(
	db *gorm.DB,
	baseLog *logger.Logger,
	cache redisclient.SchemaCache,
	formRepo formdef.FormRepo,
	componentRepo formdef.ComponentRepo,
	questionRepo formdef.QuestionRepo,
	answerRepo meldingrepo.AnswerRepo,
	clsRepo formdef.ClassificationRepo,
) FormService {
	return &formService{
		db:            db,
		log:           baseLog.With("service", "FormService"),
		cache:         cache,
		formRepo:      formRepo,
		componentRepo: componentRepo,
		questionRepo:  questionRepo,
		answerRepo:    answerRepo,
		clsRepo:       clsRepo,
	}
}

func (s *formService) RebuildPrimary(ctx context.Context, title string, inputs []schema.ComponentInput) (*domain.Form, error) {
	return s.rebuild(ctx, nil, title, inputs)
}

func (s *formService) RebuildForClassification(ctx context.Context, classificationID uuid.UUID, title string, inputs []schema.ComponentInput) (*domain.Form, error) {
	return s.rebuild(ctx, &classificationID, title, inputs)
}

// rebuild replaces a form's tree in one transaction. Questions are recreated
// from scratch, so every answer tied to the old questions is deleted first;
// an unchanged component still gets a fresh question row.
func (s *formService) rebuild(ctx context.Context, classificationID *uuid.UUID, title string, inputs []schema.ComponentInput) (*domain.Form, error) {
	if err := schema.ValidateTree(inputs); err != nil {
		return nil, err
	}
	if classificationID != nil {
		cls, err := s.clsRepo.GetByID(ctx, nil, *classificationID)
		if err != nil {
			return nil, err
		}
		if cls == nil {
			return nil, fmt.Errorf("classification: %w", ErrNotFound)
		}
	}

	var form *domain.Form
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var err error
		if classificationID == nil {
			form, err = s.formRepo.GetPrimary(ctx, tx)
		} else {
			form, err = s.formRepo.GetByClassificationID(ctx, tx, *classificationID)
		}
		if err != nil {
			return err
		}

		if form == nil {
			form = &domain.Form{ID: uuid.New(), Title: title, ClassificationID: classificationID}
			if err := s.formRepo.Create(ctx, tx, form); err != nil {
				return err
			}
		} else {
			form.Title = title
			if err := s.formRepo.Update(ctx, tx, form); err != nil {
				return err
			}
			old, err := s.questionRepo.ListByFormID(ctx, tx, form.ID)
			if err != nil {
				return err
			}
			if len(old) > 0 {
				ids := make([]uuid.UUID, 0, len(old))
				for _, q := range old {
					ids = append(ids, q.ID)
				}
				if err := s.answerRepo.DeleteByQuestionIDs(ctx, tx, ids); err != nil {
					return err
				}
			}
			if err := s.questionRepo.DeleteByFormID(ctx, tx, form.ID); err != nil {
				return err
			}
			if err := s.componentRepo.DeleteByFormID(ctx, tx, form.ID); err != nil {
				return err
			}
		}

		components, questions, err := buildRows(form, inputs)
		if err != nil {
			return err
		}
		if err := s.componentRepo.CreateBatch(ctx, tx, components); err != nil {
			return err
		}
		// The primary form carries no questions; its leaves validate the
		// initial text instead of collecting answers.
		if classificationID != nil {
			if err := s.questionRepo.CreateBatch(ctx, tx, questions); err != nil {
				return err
			}
		}

		s.cache.Invalidate(ctx, form.ID)
		return nil
	})
	if err != nil {
		return nil, err
	}
	// A concurrent Tree call during the rebuild can re-cache the old rows
	// between the in-tx invalidate and the commit, so invalidate once more.
	s.cache.Invalidate(ctx, form.ID)
	s.log.Info("form rebuilt", "form_id", form.ID.String(), "components", len(inputs))
	return form, nil
}

// buildRows flattens the recursive input into component rows with dense
// 1-based positions per parent, plus one question per answerable leaf.
func buildRows(form *domain.Form, inputs []schema.ComponentInput) ([]*domain.FormComponent, []*domain.Question, error) {
	var components []*domain.FormComponent
	var questions []*domain.Question

	var walk func(level []schema.ComponentInput, parentID *uuid.UUID) error
	walk = func(level []schema.ComponentInput, parentID *uuid.UUID) error {
		for i, in := range level {
			row := &domain.FormComponent{
				ID:          uuid.New(),
				FormID:      form.ID,
				ParentID:    parentID,
				Key:         in.Key,
				Type:        in.Type,
				Label:       in.Label,
				Description: in.Description,
				Position:    i + 1,
				Required:    in.Required,
			}
			if len(in.Validate) > 0 {
				if _, err := rules.Parse(in.Validate); err != nil {
					return fmt.Errorf("component %q: %w", in.Key, err)
				}
				row.Validate = datatypes.JSON(in.Validate)
			}
			if len(in.Options) > 0 {
				raw, err := json.Marshal(in.Options)
				if err != nil {
					return err
				}
				row.Options = datatypes.JSON(raw)
			}
			if in.Data != nil {
				raw, err := json.Marshal(in.Data)
				if err != nil {
					return err
				}
				row.Data = datatypes.JSON(raw)
			}
			components = append(components, row)

			if schema.Answerable(in.Type) {
				text := in.Label
				if text == "" {
					text = in.Key
				}
				questions = append(questions, &domain.Question{
					ID:          uuid.New(),
					ComponentID: row.ID,
					FormID:      form.ID,
					Text:        text,
				})
			}
			if err := walk(in.Components, &row.ID); err != nil {
				return err
			}
		}
		return nil
	}
	if err := walk(inputs, nil); err != nil {
		return nil, nil, err
	}
	return components, questions, nil
}

func (s *formService) PrimaryTree(ctx context.Context) (json.RawMessage, error) {
	form, err := s.formRepo.GetPrimary(ctx, nil)
	if err != nil {
		return nil, err
	}
	if form == nil {
		return nil, fmt.Errorf("primary form: %w", ErrNotFound)
	}
	return s.Tree(ctx, form.ID)
}

func (s *formService) TreeForClassification(ctx context.Context, classificationID uuid.UUID) (json.RawMessage, error) {
	form, err := s.formRepo.GetByClassificationID(ctx, nil, classificationID)
	if err != nil {
		return nil, err
	}
	if form == nil {
		return nil, fmt.Errorf("form for classification: %w", ErrNotFound)
	}
	return s.Tree(ctx, form.ID)
}

func (s *formService) Tree(ctx context.Context, formID uuid.UUID) (json.RawMessage, error) {
	if raw, ok := s.cache.GetTree(ctx, formID); ok {
		return raw, nil
	}
	tree, err := s.renderTree(ctx, formID)
	if err != nil {
		return nil, err
	}
	raw, err := json.Marshal(tree)
	if err != nil {
		return nil, err
	}
	s.cache.SetTree(ctx, formID, raw)
	return raw, nil
}

func (s *formService) renderTree(ctx context.Context, formID uuid.UUID) (*FormTree, error) {
	form, err := s.formRepo.GetByID(ctx, nil, formID)
	if err != nil {
		return nil, err
	}
	if form == nil {
		return nil, fmt.Errorf("form: %w", ErrNotFound)
	}
	components, err := s.componentRepo.ListByFormID(ctx, nil, formID)
	if err != nil {
		return nil, err
	}
	questions, err := s.questionRepo.ListByFormID(ctx, nil, formID)
	if err != nil {
		return nil, err
	}
	questionByComponent := make(map[uuid.UUID]*domain.Question, len(questions))
	for _, q := range questions {
		questionByComponent[q.ComponentID] = q
	}

	nodes := make(map[uuid.UUID]*TreeNode, len(components))
	var roots []*TreeNode
	for _, c := range components {
		node := &TreeNode{
			ID:          c.ID,
			Key:         c.Key,
			Type:        c.Type,
			Label:       c.Label,
			Description: c.Description,
			Position:    c.Position,
			Required:    c.Required,
		}
		if len(c.Validate) > 0 {
			node.Validate = json.RawMessage(c.Validate)
		}
		if len(c.Options) > 0 {
			if err := json.Unmarshal(c.Options, &node.Options); err != nil {
				return nil, fmt.Errorf("component %q options: %w", c.Key, err)
			}
		}
		if len(c.Data) > 0 {
			node.Data = &schema.SelectData{}
			if err := json.Unmarshal(c.Data, node.Data); err != nil {
				return nil, fmt.Errorf("component %q data: %w", c.Key, err)
			}
		}
		if q := questionByComponent[c.ID]; q != nil {
			node.QuestionID = &q.ID
			node.QuestionText = q.Text
		}
		nodes[c.ID] = node
	}
	// Components arrive ordered by position, so append keeps sibling order.
	for _, c := range components {
		node := nodes[c.ID]
		if c.ParentID == nil {
			roots = append(roots, node)
		} else if parent := nodes[*c.ParentID]; parent != nil {
			parent.Components = append(parent.Components, *node)
		}
	}

	tree := &FormTree{
		ID:               form.ID,
		Title:            form.Title,
		ClassificationID: form.ClassificationID,
	}
	for _, r := range roots {
		tree.Components = append(tree.Components, *r)
	}
	return tree, nil
}
