package settings

import "stencil/app/i18n"

// Translations for the bundled pages. English keys are the messages.
var Translations = i18n.Translations{
	"fr": {
		"Welcome":              "Bienvenue",
		"Posts":                "Articles",
		"New post":             "Nouvel article",
		"Edit post":            "Modifier l'article",
		"No posts yet.":        "Aucun article pour le moment.",
		"Older posts":          "Articles plus anciens",
		"Name":                 "Nom",
		"Title":                "Titre",
		"Content":              "Contenu",
		"Comments":             "Commentaires",
		"Commenter":            "Auteur",
		"Body":                 "Message",
		"Add comment":          "Commenter",
		"Edit":                 "Modifier",
		"Delete":               "Supprimer",
		"Back":                 "Retour",
		"Create":               "Créer",
		"Save":                 "Enregistrer",
		"Page not found":       "Page introuvable",
		"Server error":         "Erreur du serveur",
		"Nothing lives at %s.": "Rien ne se trouve à %s.",
		"Something went wrong. Please try again later.": "Une erreur est survenue. Veuillez réessayer plus tard.",
	},
	"es": {
		"Welcome":              "Bienvenido",
		"Posts":                "Entradas",
		"New post":             "Nueva entrada",
		"Edit post":            "Editar entrada",
		"No posts yet.":        "Todavía no hay entradas.",
		"Older posts":          "Entradas anteriores",
		"Name":                 "Nombre",
		"Title":                "Título",
		"Content":              "Contenido",
		"Comments":             "Comentarios",
		"Commenter":            "Autor",
		"Body":                 "Mensaje",
		"Add comment":          "Comentar",
		"Edit":                 "Editar",
		"Delete":               "Eliminar",
		"Back":                 "Volver",
		"Create":               "Crear",
		"Save":                 "Guardar",
		"Page not found":       "Página no encontrada",
		"Server error":         "Error del servidor",
		"Nothing lives at %s.": "No hay nada en %s.",
		"Something went wrong. Please try again later.": "Algo salió mal. Inténtalo de nuevo más tarde.",
	},
}
