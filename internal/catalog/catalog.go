// Package catalog carga los registros estáticos del recomendador (features,
// preguntas, ejes, carreras y requisitos) y los valida al arrancar.
package catalog

import (
	"embed"
	"errors"
	"fmt"
	"io/fs"
	"sort"
	"strings"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"

	"vocational-ai/internal/domain"
)

//go:embed data/*.yaml
var embedded embed.FS

var (
	ErrUnknownFeature       = errors.New("unknown feature")
	ErrUnknownCareer        = errors.New("unknown career")
	ErrUnknownAxis          = errors.New("unknown axis")
	ErrQuestionOrder        = errors.New("question id does not match its position")
	ErrDuplicateAxisCareer  = errors.New("career assigned to more than one axis")
	ErrUncoveredCareer      = errors.New("career not assigned to any axis")
	ErrDuplicateCareer      = errors.New("duplicate career")
	ErrInvalidCatalogSchema = errors.New("invalid catalog schema")
)

type featuresFile struct {
	Features []featureDTO `yaml:"features" validate:"required,min=1,dive"`
}

type featureDTO struct {
	Name    string `yaml:"name" validate:"required"`
	Class   string `yaml:"class" validate:"required,oneof=technical soft"`
	Display string `yaml:"display"`
}

type questionsFile struct {
	Questions []questionDTO `yaml:"questions" validate:"required,min=1,dive"`
}

type questionDTO struct {
	ID              int         `yaml:"id" validate:"min=0"`
	Text            string      `yaml:"text" validate:"required"`
	Kind            string      `yaml:"kind" validate:"required,oneof=technical soft"`
	Informativeness float64     `yaml:"informativeness" validate:"gt=0,lte=1"`
	Options         []optionDTO `yaml:"options" validate:"required,min=1,dive"`
}

type optionDTO struct {
	Text    string             `yaml:"text" validate:"required"`
	Weights map[string]float64 `yaml:"weights" validate:"required,min=1"`
}

type axesFile struct {
	DefaultAxis string    `yaml:"default_axis" validate:"required"`
	Axes        []axisDTO `yaml:"axes" validate:"required,min=1,dive"`
}

type axisDTO struct {
	ID          string   `yaml:"id" validate:"required"`
	Name        string   `yaml:"name" validate:"required"`
	Description string   `yaml:"description"`
	Primary     []string `yaml:"primary" validate:"required,min=1"`
	Secondary   []string `yaml:"secondary"`
	Careers     []string `yaml:"careers" validate:"required,min=1"`
}

type careersFile struct {
	Careers      []careerDTO `yaml:"careers" validate:"required,min=1,dive"`
	Images       []imageDTO  `yaml:"images" validate:"dive"`
	DefaultImage string      `yaml:"default_image" validate:"required"`
	Macro        []macroDTO  `yaml:"macro" validate:"dive"`
}

type careerDTO struct {
	Name        string `yaml:"name" validate:"required"`
	Description string `yaml:"description"`
}

type imageDTO struct {
	Keyword string `yaml:"keyword" validate:"required"`
	URL     string `yaml:"url" validate:"required"`
}

type macroDTO struct {
	Category string   `yaml:"category" validate:"required,oneof=tecnico_analitico tecnico_operativo creativo soporte"`
	Careers  []string `yaml:"careers" validate:"required,min=1"`
}

type requirementsFile struct {
	Requirements []requirementDTO `yaml:"requirements" validate:"dive"`
}

type requirementDTO struct {
	Career   string       `yaml:"career" validate:"required"`
	Minimums []minimumDTO `yaml:"minimums" validate:"required,min=1,dive"`
}

type minimumDTO struct {
	Feature string  `yaml:"feature" validate:"required"`
	Min     float64 `yaml:"min"`
}

type imageRule struct {
	keyword string
	url     string
}

// Catalog reúne los registros de solo lectura que se inyectan en los servicios.
type Catalog struct {
	Features     *domain.FeatureSet
	Questions    *domain.QuestionBank
	Axes         []domain.Axis
	DefaultAxis  string
	Careers      []domain.Career
	Requirements map[string]domain.Requirement
	Macro        map[domain.MacroCategory][]string

	display      map[string]string
	careerIndex  map[string]int
	axisIndex    map[string]int
	images       []imageRule
	defaultImage string
}

// Load lee el catálogo embebido en el binario.
func Load() (*Catalog, error) {
	sub, err := fs.Sub(embedded, "data")
	if err != nil {
		return nil, err
	}
	return LoadFS(sub)
}

// LoadFS lee features.yaml, questions.yaml, axes.yaml, careers.yaml y
// requirements.yaml desde fsys y valida todas las referencias cruzadas.
func LoadFS(fsys fs.FS) (*Catalog, error) {
	validate := validator.New()

	var ff featuresFile
	if err := decode(fsys, "features.yaml", &ff, validate); err != nil {
		return nil, err
	}
	var qf questionsFile
	if err := decode(fsys, "questions.yaml", &qf, validate); err != nil {
		return nil, err
	}
	var af axesFile
	if err := decode(fsys, "axes.yaml", &af, validate); err != nil {
		return nil, err
	}
	var cf careersFile
	if err := decode(fsys, "careers.yaml", &cf, validate); err != nil {
		return nil, err
	}
	var rf requirementsFile
	if err := decode(fsys, "requirements.yaml", &rf, validate); err != nil {
		return nil, err
	}

	c := &Catalog{
		display:      make(map[string]string, len(ff.Features)),
		careerIndex:  make(map[string]int, len(cf.Careers)),
		axisIndex:    make(map[string]int, len(af.Axes)),
		Requirements: make(map[string]domain.Requirement, len(rf.Requirements)),
		Macro:        make(map[domain.MacroCategory][]string, len(cf.Macro)),
		defaultImage: cf.DefaultImage,
	}

	defs := make([]domain.FeatureDef, 0, len(ff.Features))
	for _, f := range ff.Features {
		defs = append(defs, domain.FeatureDef{Name: f.Name, Class: domain.FeatureClass(f.Class)})
		if f.Display != "" {
			c.display[f.Name] = f.Display
		}
	}
	features, err := domain.NewFeatureSet(defs)
	if err != nil {
		return nil, fmt.Errorf("features.yaml: %w", err)
	}
	c.Features = features

	for i, cd := range cf.Careers {
		if _, dup := c.careerIndex[cd.Name]; dup {
			return nil, fmt.Errorf("careers.yaml: %w: %s", ErrDuplicateCareer, cd.Name)
		}
		c.careerIndex[cd.Name] = i
		c.Careers = append(c.Careers, domain.Career{Name: cd.Name, Description: cd.Description, Index: i})
	}
	for _, img := range cf.Images {
		c.images = append(c.images, imageRule{keyword: strings.ToLower(img.Keyword), url: img.URL})
	}
	for i := range c.Careers {
		c.Careers[i].Image = c.ImageFor(c.Careers[i].Name)
	}

	questions, err := c.buildQuestions(qf.Questions)
	if err != nil {
		return nil, err
	}
	c.Questions = domain.NewQuestionBank(questions)

	if err := c.buildAxes(af); err != nil {
		return nil, err
	}

	for _, m := range cf.Macro {
		for _, career := range m.Careers {
			if !c.hasCareer(career) {
				return nil, fmt.Errorf("careers.yaml macro %s: %w: %s", m.Category, ErrUnknownCareer, career)
			}
		}
		c.Macro[domain.MacroCategory(m.Category)] = append([]string(nil), m.Careers...)
	}

	for _, r := range rf.Requirements {
		if !c.hasCareer(r.Career) {
			return nil, fmt.Errorf("requirements.yaml: %w: %s", ErrUnknownCareer, r.Career)
		}
		req := domain.Requirement{Career: r.Career}
		for _, m := range r.Minimums {
			if !features.Contains(m.Feature) {
				return nil, fmt.Errorf("requirements.yaml %s: %w: %s", r.Career, ErrUnknownFeature, m.Feature)
			}
			req.Minimums = append(req.Minimums, domain.Minimum{Feature: m.Feature, Min: m.Min})
		}
		c.Requirements[r.Career] = req
	}

	return c, nil
}

func decode(fsys fs.FS, name string, out any, validate *validator.Validate) error {
	raw, err := fs.ReadFile(fsys, name)
	if err != nil {
		return fmt.Errorf("read %s: %w", name, err)
	}
	if err := yaml.Unmarshal(raw, out); err != nil {
		return fmt.Errorf("parse %s: %w", name, err)
	}
	if err := validate.Struct(out); err != nil {
		return fmt.Errorf("%w: %s: %v", ErrInvalidCatalogSchema, name, err)
	}
	return nil
}

func (c *Catalog) buildQuestions(dtos []questionDTO) ([]domain.Question, error) {
	out := make([]domain.Question, 0, len(dtos))
	for pos, q := range dtos {
		if q.ID != pos {
			return nil, fmt.Errorf("questions.yaml: %w: id %d at %d", ErrQuestionOrder, q.ID, pos)
		}
		question := domain.Question{
			ID:              q.ID,
			Text:            q.Text,
			Kind:            domain.FeatureClass(q.Kind),
			Informativeness: q.Informativeness,
		}
		for _, o := range q.Options {
			opt := domain.Option{Text: o.Text}
			for feature, delta := range o.Weights {
				if !c.Features.Contains(feature) {
					return nil, fmt.Errorf("questions.yaml q%d: %w: %s", q.ID, ErrUnknownFeature, feature)
				}
				opt.Weights = append(opt.Weights, domain.WeightDelta{Feature: feature, Delta: delta})
			}
			// Orden estable para que la acumulación sea determinista.
			sort.Slice(opt.Weights, func(i, j int) bool {
				return opt.Weights[i].Feature < opt.Weights[j].Feature
			})
			question.Options = append(question.Options, opt)
		}
		out = append(out, question)
	}
	return out, nil
}

func (c *Catalog) buildAxes(af axesFile) error {
	owner := make(map[string]string, len(c.Careers))
	for i, a := range af.Axes {
		for _, f := range append(append([]string(nil), a.Primary...), a.Secondary...) {
			if !c.Features.Contains(f) {
				return fmt.Errorf("axes.yaml %s: %w: %s", a.ID, ErrUnknownFeature, f)
			}
		}
		for _, career := range a.Careers {
			if !c.hasCareer(career) {
				return fmt.Errorf("axes.yaml %s: %w: %s", a.ID, ErrUnknownCareer, career)
			}
			if prev, dup := owner[career]; dup {
				return fmt.Errorf("axes.yaml: %w: %s in %s and %s", ErrDuplicateAxisCareer, career, prev, a.ID)
			}
			owner[career] = a.ID
		}
		c.axisIndex[a.ID] = i
		c.Axes = append(c.Axes, domain.Axis{
			ID:          a.ID,
			Name:        a.Name,
			Description: a.Description,
			Primary:     append([]string(nil), a.Primary...),
			Secondary:   append([]string(nil), a.Secondary...),
			Careers:     append([]string(nil), a.Careers...),
		})
	}
	for _, career := range c.Careers {
		if _, ok := owner[career.Name]; !ok {
			return fmt.Errorf("axes.yaml: %w: %s", ErrUncoveredCareer, career.Name)
		}
	}
	if _, ok := c.axisIndex[af.DefaultAxis]; !ok {
		return fmt.Errorf("axes.yaml default_axis: %w: %s", ErrUnknownAxis, af.DefaultAxis)
	}
	c.DefaultAxis = af.DefaultAxis
	return nil
}

func (c *Catalog) hasCareer(name string) bool {
	_, ok := c.careerIndex[name]
	return ok
}

func (c *Catalog) Axis(id string) (domain.Axis, bool) {
	i, ok := c.axisIndex[id]
	if !ok {
		return domain.Axis{}, false
	}
	return c.Axes[i], true
}

// AxisName devuelve el nombre legible del eje, o el id si no existe.
func (c *Catalog) AxisName(id string) string {
	if a, ok := c.Axis(id); ok {
		return a.Name
	}
	return id
}

func (c *Catalog) Career(name string) (domain.Career, bool) {
	i, ok := c.careerIndex[name]
	if !ok {
		return domain.Career{}, false
	}
	return c.Careers[i], true
}

func (c *Catalog) CareerNames() []string {
	out := make([]string, len(c.Careers))
	for i, career := range c.Careers {
		out[i] = career.Name
	}
	return out
}

// ImageFor busca la primera palabra clave contenida en el nombre.
func (c *Catalog) ImageFor(career string) string {
	key := strings.ToLower(strings.TrimSpace(career))
	for _, rule := range c.images {
		if strings.Contains(key, rule.keyword) {
			return rule.url
		}
	}
	return c.defaultImage
}

// DisplayName traduce una feature a texto legible.
func (c *Catalog) DisplayName(feature string) string {
	if d, ok := c.display[feature]; ok {
		return d
	}
	return feature
}
