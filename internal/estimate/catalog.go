// ABOUTME: Static service catalog for the estimation engine
// ABOUTME: Declaration order is significant - detection ties break on it

package estimate

// Service describes one quotable service: base pricing, detection
// keywords, and the copy shown to the user in a formatted estimate.
type Service struct {
	Key         string
	DisplayName string
	Description string
	BasePrice   int
	Duration    string
	Includes    []string
	Keywords    []string
}

// catalog lists every known service in declaration order. Detection
// iterates this slice, so earlier entries win confidence ties.
var catalog = []Service{
	{
		Key:         "sitio_web",
		DisplayName: "Desarrollo de Sitio Web",
		Description: "Página web profesional con diseño responsive y mantenimiento",
		BasePrice:   2000,
		Duration:    "2-4 semanas",
		Includes: []string{
			"Diseño responsivo",
			"Carrusel de imágenes",
			"Formulario de contacto",
			"Integración SEO básica",
			"1 mes de soporte gratis",
		},
		Keywords: []string{"sitio web", "página web", "website", "landing page", "portal web"},
	},
	{
		Key:         "app_movil",
		DisplayName: "Aplicación Móvil",
		Description: "Desarrollo de app iOS/Android con funcionalidades personalizadas",
		BasePrice:   5000,
		Duration:    "6-12 semanas",
		Includes: []string{
			"Desarrollo nativo",
			"Diseño UI/UX profesional",
			"1 año de mantenimiento",
			"Publicación en tiendas",
			"Documentación técnica",
		},
		Keywords: []string{"app", "aplicación", "movil", "mobile", "ios", "android", "app móvil", "aplicativo"},
	},
	{
		Key:         "ecommerce",
		DisplayName: "Tienda Online",
		Description: "Plataforma de comercio electrónico con pasarela de pago",
		BasePrice:   4000,
		Duration:    "4-6 semanas",
		Includes: []string{
			"Pasarela de pago",
			"Gestión de inventario",
			"Sistema de carrito",
			"Email marketing integrado",
			"3 meses de soporte",
		},
		Keywords: []string{"tienda online", "ecommerce", "comercio electrónico", "tienda virtual", "vender online"},
	},
	{
		Key:         "marketing_digital",
		DisplayName: "Estrategia Marketing Digital",
		Description: "Gestión de redes sociales y campañas digitales",
		BasePrice:   1500,
		Duration:    "Continuo",
		Includes: []string{
			"Estrategia mensual",
			"Creación de contenido",
			"Gestión de campañas",
			"Reportes mensuales",
			"Asesoría permanente",
		},
		Keywords: []string{"marketing", "redes sociales", "instagram", "facebook", "publicidad digital", "campañas", "social media"},
	},
	{
		Key:         "automatizacion_ia",
		DisplayName: "Automatización con IA",
		Description: "Chatbots, procesamiento de datos, y automatización inteligente",
		BasePrice:   3000,
		Duration:    "3-6 semanas",
		Includes: []string{
			"Chatbot inteligente",
			"Entrenamiento de modelos",
			"Integración con CRM",
			"Dashboard de análisis",
			"Soporte técnico",
		},
		Keywords: []string{"chatbot", "automatización", "ia", "inteligencia artificial", "bot", "automatizar"},
	},
	{
		Key:         "consultoria",
		DisplayName: "Consultoría Tecnológica",
		Description: "Asesoría y análisis de necesidades tecnológicas",
		BasePrice:   1000,
		Duration:    "1-2 semanas",
		Includes: []string{
			"Análisis de situación",
			"Propuesta de soluciones",
			"Documento ejecutivo",
			"Recomendaciones",
			"Seguimiento 1 mes",
		},
		Keywords: []string{"consultoría", "consultor", "asesoría", "diagnóstico", "evaluación", "análisis"},
	},
	{
		Key:         "mantenimiento",
		DisplayName: "Mantenimiento y Soporte",
		Description: "Soporte técnico, actualizaciones y mantenimiento periódico",
		BasePrice:   500,
		Duration:    "Mensual",
		Includes: []string{
			"Actualizaciones mensuales",
			"Monitoreo 24/7",
			"Backups automáticos",
			"Soporte técnico",
			"Reportes mensuales",
		},
		Keywords: []string{"mantenimiento", "soporte técnico", "mantencion", "servidor", "hosting"},
	},
	{
		Key:         "seo",
		DisplayName: "SEO y Posicionamiento",
		Description: "Optimización para buscadores y posicionamiento orgánico",
		BasePrice:   1200,
		Duration:    "Continuo (3-6 meses para resultados)",
		Includes: []string{
			"Auditoría SEO",
			"Palabras clave",
			"Optimización on-page",
			"Link building",
			"Reportes mensuales",
		},
		Keywords: []string{"seo", "posicionamiento", "buscador", "organico", "google", "ranking"},
	},
}

// Catalog returns the full service catalog in declaration order.
func Catalog() []Service {
	out := make([]Service, len(catalog))
	copy(out, catalog)
	return out
}

// Lookup returns the catalog entry for key, if any.
func Lookup(key string) (Service, bool) {
	for _, svc := range catalog {
		if svc.Key == key {
			return svc, true
		}
	}
	return Service{}, false
}
